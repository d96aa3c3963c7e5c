package pipeline

import (
	"fmt"
	"sync"

	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/schema"
)

// Dataset binds a schema descriptor to the source its rows come from.
type Dataset struct {
	Name       string
	Descriptor *schema.Descriptor
	Source     load.Source
}

// Relation declares a foreign-key link between two registered datasets,
// checked and joined on every run.
type Relation struct {
	Name      string
	Parent    string
	ParentKey []string
	Child     string
	ChildKey  []string
	Mode      join.Mode
}

var (
	registryMu sync.RWMutex
	datasets   []Dataset
	byName     = make(map[string]int)
	relations  []Relation
)

// Register adds a dataset to the registry. Registration order is
// preserved: runs process and report datasets in the order they were
// declared. Panics on a duplicate name or an incomplete definition.
func Register(ds Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if ds.Name == "" {
		panic("pipeline: dataset name is empty")
	}
	if ds.Descriptor == nil {
		panic(fmt.Sprintf("pipeline: dataset %s has no descriptor", ds.Name))
	}
	if ds.Source == nil {
		panic(fmt.Sprintf("pipeline: dataset %s has no source", ds.Name))
	}
	if _, exists := byName[ds.Name]; exists {
		panic(fmt.Sprintf("pipeline: dataset already registered: %s", ds.Name))
	}

	byName[ds.Name] = len(datasets)
	datasets = append(datasets, ds)
}

// RegisterRelation declares a relation between two already-registered
// datasets. Panics when either side is unknown.
func RegisterRelation(rel Relation) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := byName[rel.Parent]; !ok {
		panic(fmt.Sprintf("pipeline: relation %s references unknown parent %s", rel.Name, rel.Parent))
	}
	if _, ok := byName[rel.Child]; !ok {
		panic(fmt.Sprintf("pipeline: relation %s references unknown child %s", rel.Name, rel.Child))
	}
	if len(rel.ParentKey) == 0 || len(rel.ParentKey) != len(rel.ChildKey) {
		panic(fmt.Sprintf("pipeline: relation %s has mismatched keys", rel.Name))
	}
	for _, existing := range relations {
		if existing.Name == rel.Name {
			panic(fmt.Sprintf("pipeline: relation already registered: %s", rel.Name))
		}
	}

	relations = append(relations, rel)
}

// GetDataset returns a dataset by name.
// Returns false if not found.
func GetDataset(name string) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	i, ok := byName[name]
	if !ok {
		return Dataset{}, false
	}
	return datasets[i], true
}

// Datasets returns all registered datasets in declaration order.
func Datasets() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Dataset, len(datasets))
	copy(out, datasets)
	return out
}

// Relations returns all registered relations in declaration order.
func Relations() []Relation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Relation, len(relations))
	copy(out, relations)
	return out
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(datasets)
}

// Clear removes all registered datasets and relations.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	datasets = nil
	byName = make(map[string]int)
	relations = nil
}
