package schema

import "time"

// Recipes returns the descriptor for the raw recipes export.
// Column order matches the raw file. validFrom/validTo bound the submitted
// date; they come from configuration since the plausible window shifts as
// new dumps are published.
func Recipes(validFrom, validTo time.Time) *Descriptor {
	return MustNew("recipes", []FieldSpec{
		{Name: "name", Type: FieldText, Nullable: true},
		{Name: "id", Type: FieldInt, Unique: true},
		{Name: "minutes", Type: FieldInt, Min: fp(1)},
		{Name: "contributor_id", Type: FieldInt, Nullable: true},
		{Name: "submitted", Type: FieldDate, MinDate: validFrom, MaxDate: validTo},
		{Name: "tags", Type: FieldList, Nullable: true},
		{Name: "nutrition", Type: FieldList, Nullable: true},
		{Name: "n_steps", Type: FieldInt, CountOf: "steps"},
		{Name: "steps", Type: FieldList},
		{Name: "description", Type: FieldText, Nullable: true},
		{Name: "ingredients", Type: FieldList},
		{Name: "n_ingredients", Type: FieldInt, CountOf: "ingredients"},
	})
}

// fp returns a pointer to a float64 literal for range bounds.
func fp(v float64) *float64 { return &v }
