package schema

import (
	"testing"
	"time"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		fields []FieldSpec
	}{
		{
			name: "duplicate column",
			fields: []FieldSpec{
				{Name: "id", Type: FieldInt, Unique: true},
				{Name: "id", Type: FieldText},
			},
		},
		{
			name: "unnamed column",
			fields: []FieldSpec{
				{Name: "", Type: FieldInt, Unique: true},
			},
		},
		{
			name: "no key column",
			fields: []FieldSpec{
				{Name: "a", Type: FieldText},
				{Name: "b", Type: FieldInt},
			},
		},
		{
			name: "count on non-int column",
			fields: []FieldSpec{
				{Name: "id", Type: FieldInt, Unique: true},
				{Name: "items", Type: FieldList},
				{Name: "n", Type: FieldText, CountOf: "items"},
			},
		},
		{
			name: "count of unknown column",
			fields: []FieldSpec{
				{Name: "id", Type: FieldInt, Unique: true},
				{Name: "n", Type: FieldInt, CountOf: "missing"},
			},
		},
		{
			name: "count of non-list column",
			fields: []FieldSpec{
				{Name: "id", Type: FieldInt, Unique: true},
				{Name: "other", Type: FieldText},
				{Name: "n", Type: FieldInt, CountOf: "other"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("bad", tt.fields); err == nil {
				t.Error("New() error = nil, want rejection")
			}
		})
	}
}

func TestDescriptor_Accessors(t *testing.T) {
	d := Interactions()

	if d.Dataset() != "interactions" {
		t.Errorf("Dataset() = %q", d.Dataset())
	}

	wantCols := []string{"user_id", "recipe_id", "date", "rating", "review"}
	cols := d.Columns()
	if len(cols) != len(wantCols) {
		t.Fatalf("Columns() = %v", cols)
	}
	for i, c := range wantCols {
		if cols[i] != c {
			t.Errorf("Columns()[%d] = %q, want %q", i, cols[i], c)
		}
	}

	key := d.Key()
	if len(key) != 2 || key[0] != "user_id" || key[1] != "recipe_id" {
		t.Errorf("Key() = %v, want [user_id recipe_id]", key)
	}

	if !d.Required("rating") {
		t.Error("rating should be required")
	}
	if d.Required("review") {
		t.Error("review is nullable, should not be required")
	}
	if d.Required("nonexistent") {
		t.Error("unknown column should not be required")
	}
}

// interactionRow builds a row aligned with the interactions descriptor.
func interactionRow(user, recipe int64, date string, rating table.Value, review table.Value) table.Row {
	d, _ := table.ParseDate(date)
	return table.Row{
		table.NewInt(user),
		table.NewInt(recipe),
		d,
		rating,
		review,
	}
}

func TestValidateRow_Interactions(t *testing.T) {
	d := Interactions()

	tests := []struct {
		name     string
		row      table.Row
		wantCode Code
		wantCol  string
	}{
		{
			name: "clean row",
			row:  interactionRow(7, 31, "2010-05-01", table.NewInt(5), table.NewText("great")),
		},
		{
			name: "missing review is fine",
			row:  interactionRow(7, 31, "2010-05-01", table.NewInt(4), table.Missing()),
		},
		{
			name:     "rating above range",
			row:      interactionRow(7, 31, "2010-05-01", table.NewInt(7), table.Missing()),
			wantCode: CodeOutOfRange,
			wantCol:  "rating",
		},
		{
			name:     "rating below range",
			row:      interactionRow(7, 31, "2010-05-01", table.NewInt(0), table.Missing()),
			wantCode: CodeOutOfRange,
			wantCol:  "rating",
		},
		{
			name:     "missing key part",
			row:      table.Row{table.Missing(), table.NewInt(31), mustDate("2010-05-01"), table.NewInt(3), table.Missing()},
			wantCode: CodeNullViolation,
			wantCol:  "user_id",
		},
		{
			name:     "unparsed rating kept as text",
			row:      interactionRow(7, 31, "2010-05-01", table.NewText("five"), table.Missing()),
			wantCode: CodeTypeMismatch,
			wantCol:  "rating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.ValidateRow(tt.row)
			if tt.wantCode == "" {
				if len(got) != 0 {
					t.Fatalf("ValidateRow() = %+v, want none", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("ValidateRow() returned %d violations, want 1: %+v", len(got), got)
			}
			if got[0].Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", got[0].Code, tt.wantCode)
			}
			if got[0].Column != tt.wantCol {
				t.Errorf("Column = %s, want %s", got[0].Column, tt.wantCol)
			}
		})
	}
}

func TestValidateRow_WidthMismatch(t *testing.T) {
	d := Interactions()
	got := d.ValidateRow(table.Row{table.NewInt(1)})
	if len(got) != 1 || got[0].Code != CodeTypeMismatch {
		t.Fatalf("ValidateRow() = %+v, want one type_mismatch", got)
	}
}

func TestValidateRow_CountMismatch(t *testing.T) {
	from := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)
	d := Recipes(from, to)

	row := recipeRow()
	// n_steps says 4 but steps has 3 entries
	row[colIndex(d, "n_steps")] = table.NewInt(4)

	got := d.ValidateRow(row)
	if len(got) != 1 {
		t.Fatalf("ValidateRow() returned %d violations, want 1: %+v", len(got), got)
	}
	if got[0].Code != CodeCountMismatch || got[0].Column != "n_steps" {
		t.Errorf("violation = %+v, want count_mismatch on n_steps", got[0])
	}
}

func TestValidateRow_CountSkippedWhenRowDirty(t *testing.T) {
	from := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)
	d := Recipes(from, to)

	row := recipeRow()
	row[colIndex(d, "minutes")] = table.NewInt(0) // out of range
	row[colIndex(d, "n_steps")] = table.NewInt(99)

	got := d.ValidateRow(row)
	for _, v := range got {
		if v.Code == CodeCountMismatch {
			t.Error("count check should not run when per-column checks failed")
		}
	}
	if len(got) != 1 || got[0].Column != "minutes" {
		t.Fatalf("ValidateRow() = %+v, want only the minutes violation", got)
	}
}

func TestValidateRow_SubmittedOutsideWindow(t *testing.T) {
	from := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)
	d := Recipes(from, to)

	row := recipeRow()
	row[colIndex(d, "submitted")] = mustDate("2025-06-01")

	got := d.ValidateRow(row)
	if len(got) != 1 || got[0].Code != CodeOutOfRange || got[0].Column != "submitted" {
		t.Fatalf("ValidateRow() = %+v, want out_of_range on submitted", got)
	}
}

// recipeRow builds a clean row aligned with the recipes descriptor:
// 3 steps, 3 ingredients, submitted 2008-09-16.
func recipeRow() table.Row {
	return table.Row{
		table.NewText("arriba baked squash"),
		table.NewInt(137739),
		table.NewInt(55),
		table.NewInt(47892),
		mustDate("2008-09-16"),
		table.NewList([]string{"60-minutes-or-less", "vegetarian"}),
		table.NewList([]string{"51.5", "0.0", "13.0"}),
		table.NewInt(3),
		table.NewList([]string{"peel", "chop", "bake"}),
		table.NewText("autumn is here"),
		table.NewList([]string{"squash", "butter", "salt"}),
		table.NewInt(3),
	}
}

func colIndex(d *Descriptor, name string) int {
	for i, c := range d.Columns() {
		if c == name {
			return i
		}
	}
	return -1
}

func mustDate(s string) table.Value {
	v, ok := table.ParseDate(s)
	if !ok {
		panic("bad date literal: " + s)
	}
	return v
}
