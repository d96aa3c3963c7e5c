package table

import "testing"

func sampleTable() *Table {
	t := New("sample", []string{"id", "name"})
	t.Rows = append(t.Rows,
		Row{NewInt(1), NewText("one")},
		Row{NewInt(2), Missing()},
	)
	return t
}

func TestAppendRow_WidthChecked(t *testing.T) {
	tbl := New("t", []string{"a", "b"})

	if err := tbl.AppendRow(Row{NewInt(1), NewInt(2)}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := tbl.AppendRow(Row{NewInt(1)}); err == nil {
		t.Error("expected error for short row")
	}
	if err := tbl.AppendRow(Row{NewInt(1), NewInt(2), NewInt(3)}); err == nil {
		t.Error("expected error for wide row")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1 (rejected rows must not be appended)", tbl.Len())
	}
}

func TestColumnIndex(t *testing.T) {
	tbl := sampleTable()
	if got := tbl.ColumnIndex("name"); got != 1 {
		t.Errorf("ColumnIndex(name) = %d, want 1", got)
	}
	if got := tbl.ColumnIndex("ghost"); got != -1 {
		t.Errorf("ColumnIndex(ghost) = %d, want -1", got)
	}
}

func TestValueAccessor(t *testing.T) {
	tbl := sampleTable()

	v, ok := tbl.Value(0, "name")
	if !ok || v.Text != "one" {
		t.Errorf("Value(0, name) = %+v, %v", v, ok)
	}
	if v, _ := tbl.Value(1, "name"); v.Valid {
		t.Errorf("Value(1, name) should be missing, got %+v", v)
	}
	if _, ok := tbl.Value(5, "name"); ok {
		t.Error("out-of-range row reported ok")
	}
	if _, ok := tbl.Value(0, "ghost"); ok {
		t.Error("unknown column reported ok")
	}
}

func TestClone_Independent(t *testing.T) {
	tbl := New("t", []string{"id", "tags"})
	tbl.Rows = append(tbl.Rows, Row{NewInt(1), NewList([]string{"a", "b"})})

	cp := tbl.Clone()
	cp.Rows[0][0] = NewInt(99)
	cp.Rows[0][1].List[0] = "mutated"
	cp.Columns[0] = "renamed"

	if tbl.Rows[0][0].Int != 1 {
		t.Error("clone mutation leaked into the original row")
	}
	if tbl.Rows[0][1].List[0] != "a" {
		t.Error("clone mutation leaked into the original list")
	}
	if tbl.Columns[0] != "id" {
		t.Error("clone mutation leaked into the original columns")
	}
}
