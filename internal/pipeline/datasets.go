package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/JonMunkholm/DataCheck/internal/config"
	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/schema"
)

// RegisterDefaults registers the recipes and interactions datasets plus
// the foreign-key relation between them, using paths and bounds from cfg.
func RegisterDefaults(cfg *config.Config) error {
	mode, err := join.ParseMode(cfg.Data.JoinMode)
	if err != nil {
		return fmt.Errorf("register datasets: %w", err)
	}
	from, to := cfg.Data.SubmittedRange()

	Register(Dataset{
		Name:       "recipes",
		Descriptor: schema.Recipes(from, to),
		Source:     load.FileSource{Path: filepath.Join(cfg.Data.RawDir, cfg.Data.RecipesFile)},
	})
	Register(Dataset{
		Name:       "interactions",
		Descriptor: schema.Interactions(),
		Source:     load.FileSource{Path: filepath.Join(cfg.Data.RawDir, cfg.Data.InteractionsFile)},
	})
	RegisterRelation(Relation{
		Name:      "recipe_interactions",
		Parent:    "recipes",
		ParentKey: []string{"id"},
		Child:     "interactions",
		ChildKey:  []string{"recipe_id"},
		Mode:      mode,
	})
	return nil
}
