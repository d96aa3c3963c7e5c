package join

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

// recipesTable builds a small parent table with one row per id.
func recipesTable(ids ...int64) *table.Table {
	t := table.New("recipes", []string{"id", "name"})
	for _, id := range ids {
		t.Rows = append(t.Rows, table.Row{table.NewInt(id), table.NewText("recipe")})
	}
	return t
}

// interactionsTable builds a child table; each value is the recipe_id
// reference for one row.
func interactionsTable(refs ...table.Value) *table.Table {
	t := table.New("interactions", []string{"recipe_id", "rating"})
	for _, ref := range refs {
		t.Rows = append(t.Rows, table.Row{ref, table.NewInt(5)})
	}
	return t
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"inner", Inner, false},
		{"left", Left, false},
		{"RIGHT", Right, false},
		{"Inner", Inner, false},
		{"outer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoin_Inner(t *testing.T) {
	left := recipesTable(1, 2, 3)
	right := interactionsTable(table.NewInt(1), table.NewInt(2), table.NewInt(1))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 3 {
		t.Errorf("Matched = %d, want 3", res.Matched)
	}
	if res.LeftOnly != 1 {
		t.Errorf("LeftOnly = %d, want 1 (recipe 3 has no interactions)", res.LeftOnly)
	}
	if res.RightOnly != 0 {
		t.Errorf("RightOnly = %d, want 0", res.RightOnly)
	}
	if res.Table.Len() != 3 {
		t.Errorf("inner join emitted %d rows, want 3", res.Table.Len())
	}
	wantCols := []string{"id", "name", "recipe_id", "rating"}
	if len(res.Table.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", res.Table.Columns, wantCols)
	}
	for i, c := range wantCols {
		if res.Table.Columns[i] != c {
			t.Errorf("column[%d] = %q, want %q", i, res.Table.Columns[i], c)
		}
	}
}

func TestJoin_Left(t *testing.T) {
	left := recipesTable(1, 2, 3)
	right := interactionsTable(table.NewInt(1))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Left)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 1 || res.LeftOnly != 2 || res.RightOnly != 0 {
		t.Errorf("counters = matched %d leftOnly %d rightOnly %d, want 1/2/0",
			res.Matched, res.LeftOnly, res.RightOnly)
	}
	if res.Table.Len() != 3 {
		t.Fatalf("left join emitted %d rows, want 3", res.Table.Len())
	}

	// Unmatched left rows pad the right-hand columns with missing values.
	padded := 0
	for i := range res.Table.Rows {
		v, ok := res.Table.Value(i, "recipe_id")
		if !ok {
			t.Fatalf("row %d: no recipe_id cell", i)
		}
		if !v.Valid {
			padded++
		}
	}
	if padded != 2 {
		t.Errorf("padded rows = %d, want 2", padded)
	}
}

func TestJoin_Right(t *testing.T) {
	left := recipesTable(1)
	right := interactionsTable(table.NewInt(1), table.NewInt(999))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Right)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 1 || res.RightOnly != 1 || res.LeftOnly != 0 {
		t.Errorf("counters = matched %d rightOnly %d leftOnly %d, want 1/1/0",
			res.Matched, res.RightOnly, res.LeftOnly)
	}
	if res.Table.Len() != 2 {
		t.Fatalf("right join emitted %d rows, want 2", res.Table.Len())
	}

	// The dangling interaction survives with left columns padded.
	foundDangling := false
	for i := range res.Table.Rows {
		ref, _ := res.Table.Value(i, "recipe_id")
		if ref.Valid && ref.Int == 999 {
			id, _ := res.Table.Value(i, "id")
			if id.Valid {
				t.Errorf("dangling row %d: left id should be missing, got %v", i, id)
			}
			foundDangling = true
		}
	}
	if !foundDangling {
		t.Error("dangling interaction (recipe_id 999) missing from right join output")
	}
}

func TestJoin_CartesianExpansion(t *testing.T) {
	// Duplicate keys on both sides expand as a cartesian product within
	// the group: 2 left rows x 3 right rows with key 1.
	left := recipesTable(1, 1)
	right := interactionsTable(table.NewInt(1), table.NewInt(1), table.NewInt(1))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 6 {
		t.Errorf("Matched = %d, want 6 (2x3 cartesian group)", res.Matched)
	}
	if res.Table.Len() != 6 {
		t.Errorf("emitted %d rows, want 6", res.Table.Len())
	}
}

func TestJoin_IndexSideSymmetry(t *testing.T) {
	// The hash index goes over the smaller side. Flipping which side is
	// larger must not change the counters.
	small := recipesTable(1, 2)
	big := interactionsTable(
		table.NewInt(1), table.NewInt(1), table.NewInt(2),
		table.NewInt(999), table.Missing(),
	)

	res, err := Join(small, big, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 3 {
		t.Errorf("Matched = %d, want 3", res.Matched)
	}
	if res.RightOnly != 1 {
		t.Errorf("RightOnly = %d, want 1", res.RightOnly)
	}
	if res.RightNoKey != 1 {
		t.Errorf("RightNoKey = %d, want 1", res.RightNoKey)
	}
	if res.LeftOnly != 0 || res.LeftNoKey != 0 {
		t.Errorf("left counters = %d/%d, want 0/0", res.LeftOnly, res.LeftNoKey)
	}

	// Matched + RightOnly + RightNoKey accounts for every right row.
	if got := res.Matched + res.RightOnly + res.RightNoKey; got != big.Len() {
		t.Errorf("right accounting = %d, want %d", got, big.Len())
	}
}

func TestJoin_MissingKeyNotUnmatched(t *testing.T) {
	left := recipesTable(1)
	right := interactionsTable(table.NewInt(1), table.Missing())

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.RightNoKey != 1 {
		t.Errorf("RightNoKey = %d, want 1", res.RightNoKey)
	}
	if res.RightOnly != 0 {
		t.Errorf("RightOnly = %d, want 0 (missing key is not unmatched)", res.RightOnly)
	}

	// A right join keeps the no-key row, padded on the left.
	res, err = Join(left, right, []string{"id"}, []string{"recipe_id"}, Right)
	if err != nil {
		t.Fatalf("Join right: %v", err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("right join emitted %d rows, want 2 (matched + no-key)", res.Table.Len())
	}
}

func TestJoin_TypeTaggedKeys(t *testing.T) {
	// Text "1" must not match integer 1.
	left := recipesTable(1)
	right := interactionsTable(table.NewText("1"))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 0 {
		t.Errorf("Matched = %d, want 0 (text key must not match int key)", res.Matched)
	}
	if res.LeftOnly != 1 || res.RightOnly != 1 {
		t.Errorf("only counters = %d/%d, want 1/1", res.LeftOnly, res.RightOnly)
	}
}

func TestJoin_ClashingColumnsSuffixed(t *testing.T) {
	left := table.New("a", []string{"id", "date"})
	left.Rows = append(left.Rows, table.Row{table.NewInt(1), table.NewText("x")})
	right := table.New("b", []string{"id", "date"})
	right.Rows = append(right.Rows, table.Row{table.NewInt(1), table.NewText("y")})

	res, err := Join(left, right, []string{"id"}, []string{"id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	want := []string{"id", "date", "id_right", "date_right"}
	if len(res.Table.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", res.Table.Columns, want)
	}
	for i, c := range want {
		if res.Table.Columns[i] != c {
			t.Errorf("column[%d] = %q, want %q", i, res.Table.Columns[i], c)
		}
	}
	v, _ := res.Table.Value(0, "date_right")
	if v.Text != "y" {
		t.Errorf("date_right = %q, want %q", v.Text, "y")
	}
}

func TestJoin_ResultDoesNotAliasInputs(t *testing.T) {
	left := recipesTable(1)
	right := interactionsTable(table.NewInt(1))

	res, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	left.Rows[0][1] = table.NewText("mutated")

	v, _ := res.Table.Value(0, "name")
	if v.Text != "recipe" {
		t.Errorf("joined row changed after source mutation: name = %q", v.Text)
	}
}

func TestJoin_KeyColumnMissing(t *testing.T) {
	left := recipesTable(1)
	right := table.New("interactions", []string{"rating"})

	_, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Inner)
	if err == nil {
		t.Fatal("expected error for missing key column")
	}
	var kerr *KeyColumnMissingError
	if !errors.As(err, &kerr) {
		t.Fatalf("error type = %T, want *KeyColumnMissingError", err)
	}
	if kerr.Table != "interactions" {
		t.Errorf("Table = %q, want %q", kerr.Table, "interactions")
	}
	if len(kerr.Columns) != 1 || kerr.Columns[0] != "recipe_id" {
		t.Errorf("Columns = %v, want [recipe_id]", kerr.Columns)
	}
}

func TestJoin_BadKeySpec(t *testing.T) {
	left := recipesTable(1)
	right := interactionsTable(table.NewInt(1))

	if _, err := Join(left, right, nil, nil, Inner); err == nil {
		t.Error("expected error for empty keys")
	}
	if _, err := Join(left, right, []string{"id", "name"}, []string{"recipe_id"}, Inner); err == nil {
		t.Error("expected error for mismatched key lengths")
	}
	if _, err := Join(left, right, []string{"id"}, []string{"recipe_id"}, Mode("outer")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestJoin_CompositeKey(t *testing.T) {
	left := table.New("l", []string{"user_id", "recipe_id", "tag"})
	left.Rows = append(left.Rows,
		table.Row{table.NewInt(1), table.NewInt(10), table.NewText("a")},
		table.Row{table.NewInt(1), table.NewInt(11), table.NewText("b")},
	)
	right := table.New("r", []string{"uid", "rid", "note"})
	right.Rows = append(right.Rows,
		table.Row{table.NewInt(1), table.NewInt(10), table.NewText("x")},
	)

	res, err := Join(left, right, []string{"user_id", "recipe_id"}, []string{"uid", "rid"}, Inner)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if res.Matched != 1 {
		t.Errorf("Matched = %d, want 1", res.Matched)
	}
	if res.LeftOnly != 1 {
		t.Errorf("LeftOnly = %d, want 1", res.LeftOnly)
	}
}
