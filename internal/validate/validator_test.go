package validate

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/table"
)

func ratingsDescriptor(t *testing.T) *schema.Descriptor {
	t.Helper()
	d, err := schema.New("interactions", []schema.FieldSpec{
		{Name: "user_id", Type: schema.FieldInt, Unique: true},
		{Name: "recipe_id", Type: schema.FieldInt, Unique: true},
		{Name: "rating", Type: schema.FieldInt, Min: fp(1), Max: fp(5)},
		{Name: "review", Type: schema.FieldText, Nullable: true},
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v", err)
	}
	return d
}

func fp(v float64) *float64 { return &v }

func ratingsTable(t *testing.T, rows ...table.Row) *table.Table {
	t.Helper()
	tbl := table.New("interactions", []string{"user_id", "recipe_id", "rating", "review"})
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("AppendRow() error = %v", err)
		}
	}
	return tbl
}

func row(user, recipe, rating int64) table.Row {
	return table.Row{table.NewInt(user), table.NewInt(recipe), table.NewInt(rating), table.Missing()}
}

func TestValidateSchema_CleanTable(t *testing.T) {
	tbl := ratingsTable(t, row(1, 10, 5), row(2, 10, 3), row(1, 11, 4))

	report, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}
	if report.HasViolations() {
		t.Errorf("Violations = %+v, want none", report.Violations)
	}
}

func TestValidateSchema_AccumulatesAllViolations(t *testing.T) {
	tbl := ratingsTable(t,
		row(1, 10, 7),                // out of range
		row(2, 10, 0),                // out of range
		table.Row{table.Missing(), table.NewInt(10), table.NewInt(3), table.Missing()}, // null key part
	)

	report, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}

	if len(report.Violations) != 3 {
		t.Fatalf("got %d violations, want 3: %+v", len(report.Violations), report.Violations)
	}
	if report.CountByCode(schema.CodeOutOfRange) != 2 {
		t.Errorf("out_of_range count = %d, want 2", report.CountByCode(schema.CodeOutOfRange))
	}
	if report.CountByCode(schema.CodeNullViolation) != 1 {
		t.Errorf("null_violation count = %d, want 1", report.CountByCode(schema.CodeNullViolation))
	}

	// Violations carry original row indices in order
	if report.Violations[0].Row != 0 || report.Violations[1].Row != 1 || report.Violations[2].Row != 2 {
		t.Errorf("rows = %d,%d,%d, want 0,1,2",
			report.Violations[0].Row, report.Violations[1].Row, report.Violations[2].Row)
	}
}

func TestValidateSchema_DuplicateCompositeKey(t *testing.T) {
	tbl := ratingsTable(t,
		row(1, 10, 5),
		row(1, 11, 4), // same user, different recipe: fine
		row(1, 10, 2), // duplicate (user 1, recipe 10)
		row(1, 10, 3), // duplicate again
	)

	report, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}

	dups := report.CountByCode(schema.CodeDuplicateKey)
	if dups != 2 {
		t.Fatalf("duplicate_key count = %d, want 2 (one per occurrence beyond the first)", dups)
	}
	for _, v := range report.Violations {
		if v.Code == schema.CodeDuplicateKey && v.Column != "user_id,recipe_id" {
			t.Errorf("duplicate column = %q, want composite name", v.Column)
		}
	}
}

func TestValidateSchema_MissingKeyPartSkipsUniqueness(t *testing.T) {
	// Two rows with a missing user_id must not count as duplicates of
	// each other; they already carry null violations.
	incomplete := table.Row{table.Missing(), table.NewInt(10), table.NewInt(3), table.Missing()}
	tbl := ratingsTable(t, incomplete, incomplete.Clone())

	report, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}
	if n := report.CountByCode(schema.CodeDuplicateKey); n != 0 {
		t.Errorf("duplicate_key count = %d, want 0", n)
	}
	if n := report.CountByCode(schema.CodeNullViolation); n != 2 {
		t.Errorf("null_violation count = %d, want 2", n)
	}
}

func TestValidateSchema_MissingColumnFatal(t *testing.T) {
	tbl := table.New("interactions", []string{"user_id", "rating"})

	_, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("error = %v, want ErrSchemaMismatch", err)
	}

	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatal("error should be *SchemaMismatchError")
	}
	if len(mismatch.Missing) != 2 {
		t.Errorf("Missing = %v, want [recipe_id review]", mismatch.Missing)
	}
}

func TestValidateSchemaParallel_SameReportAnyWorkerCount(t *testing.T) {
	var rows []table.Row
	for i := 0; i < 100; i++ {
		r := int64(i%9 + 1) // some out of the 1..5 range
		rows = append(rows, row(int64(i), int64(i%10), r))
	}
	// A couple of duplicate keys
	rows = append(rows, row(0, 0, 3), row(1, 1, 3))
	tbl := ratingsTable(t, rows...)
	desc := ratingsDescriptor(t)

	baseline, err := ValidateSchema(tbl, desc)
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}

	for _, workers := range []int{2, 4, 7, 16} {
		got, err := ValidateSchemaParallel(tbl, desc, workers)
		if err != nil {
			t.Fatalf("workers=%d error = %v", workers, err)
		}
		if len(got.Violations) != len(baseline.Violations) {
			t.Fatalf("workers=%d: %d violations, want %d", workers, len(got.Violations), len(baseline.Violations))
		}
		for i := range got.Violations {
			if got.Violations[i] != baseline.Violations[i] {
				t.Errorf("workers=%d: violation %d differs: %+v vs %+v",
					workers, i, got.Violations[i], baseline.Violations[i])
			}
		}
	}
}

func TestValidateSchema_EmptyTable(t *testing.T) {
	tbl := ratingsTable(t)

	report, err := ValidateSchema(tbl, ratingsDescriptor(t))
	if err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}
	if report.HasViolations() {
		t.Errorf("empty table should have no violations: %+v", report.Violations)
	}
}
