package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

func TestWriteCSV(t *testing.T) {
	tbl := table.New("recipes", []string{"id", "name", "submitted", "tags", "minutes"})
	tbl.Rows = append(tbl.Rows,
		table.Row{
			table.NewInt(137739),
			table.NewText("arriba baked squash"),
			table.NewDate(time.Date(2008, 9, 16, 0, 0, 0, 0, time.UTC)),
			table.NewList([]string{"60-minutes-or-less", "mexican"}),
			table.NewInt(55),
		},
		table.Row{
			table.NewInt(31490),
			table.Missing(),
			table.NewDate(time.Date(2002, 6, 17, 0, 0, 0, 0, time.UTC)),
			table.NewList(nil),
			table.Missing(),
		},
	)

	var buf strings.Builder
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "id,name,submitted,tags,minutes" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "137739,arriba baked squash,2008-09-16,") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[1], "60-minutes-or-less") {
		t.Errorf("row 1 lost the list value: %q", lines[1])
	}

	// Missing values render as empty cells.
	if !strings.HasPrefix(lines[2], "31490,,2002-06-17,") {
		t.Errorf("row 2 = %q", lines[2])
	}
	if !strings.HasSuffix(lines[2], ",") {
		t.Errorf("row 2 should end with an empty minutes cell: %q", lines[2])
	}
}

func TestWriteCSV_QuotesEmbeddedCommas(t *testing.T) {
	tbl := table.New("t", []string{"review"})
	tbl.Rows = append(tbl.Rows, table.Row{table.NewText(`great, easy, "fast"`)})

	var buf strings.Builder
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "review\n\"great, easy, \"\"fast\"\"\"\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	tbl := table.New("empty", []string{"a", "b"})

	var buf strings.Builder
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "a,b\n" {
		t.Errorf("output = %q, want header only", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSV_WriterError(t *testing.T) {
	tbl := table.New("t", []string{"column_one", "column_two"})
	tbl.Rows = append(tbl.Rows, table.Row{table.NewInt(1), table.NewInt(2)})

	if err := WriteCSV(failingWriter{}, tbl); err == nil {
		t.Error("expected error from failing writer")
	}
}
