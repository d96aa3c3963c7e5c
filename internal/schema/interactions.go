package schema

// Interactions returns the descriptor for the raw interactions export.
// The composite key (user_id, recipe_id) means a user rates a given recipe
// at most once. recipe_id is additionally a foreign key into recipes.id;
// that relationship is declared at the pipeline level, not here, since a
// descriptor knows nothing about other datasets.
func Interactions() *Descriptor {
	return MustNew("interactions", []FieldSpec{
		{Name: "user_id", Type: FieldInt, Unique: true},
		{Name: "recipe_id", Type: FieldInt, Unique: true},
		{Name: "date", Type: FieldDate},
		{Name: "rating", Type: FieldInt, Min: fp(1), Max: fp(5)},
		{Name: "review", Type: FieldText, Nullable: true},
	})
}
