package web

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/pipeline"
	"github.com/JonMunkholm/DataCheck/internal/validate"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "source unavailable",
			err:      fmt.Errorf("load recipes: %w", load.ErrSourceUnavailable),
			wantCode: "SRC001",
		},
		{
			name:     "parse error",
			err:      &load.ParseError{Source: "recipes.csv", Line: 12, Err: errors.New("bare quote")},
			wantCode: "PRS001",
		},
		{
			name:     "wrapped parse error",
			err:      fmt.Errorf("load: %w", &load.ParseError{Source: "x.csv", Line: 1, Err: errors.New("bad")}),
			wantCode: "PRS001",
		},
		{
			name:     "schema mismatch",
			err:      &validate.SchemaMismatchError{Dataset: "recipes", Missing: []string{"id"}},
			wantCode: "SCH001",
		},
		{
			name:     "key column missing",
			err:      &join.KeyColumnMissingError{Table: "interactions", Columns: []string{"recipe_id"}},
			wantCode: "KEY001",
		},
		{
			name:     "run in progress",
			err:      pipeline.ErrRunInProgress,
			wantCode: "RUN001",
		},
		{
			name:     "run not found",
			err:      fmt.Errorf("run abc: %w", pgx.ErrNoRows),
			wantCode: "HIST002",
		},
		{
			name:     "no completed run",
			err:      errNoCompletedRun,
			wantCode: "RUN002",
		},
		{
			name:     "history disabled",
			err:      errHistoryDisabled,
			wantCode: "HIST001",
		},
		{
			name:     "unknown dataset",
			err:      errUnknownDataset,
			wantCode: "DATA001",
		},
		{
			name:     "no joined table",
			err:      errNoJoinedTable,
			wantCode: "DATA002",
		},
		{
			name:     "invalid run id",
			err:      errInvalidRunID,
			wantCode: "REQ001",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "HIST003",
		},
		{
			name:     "deadline exceeded",
			err:      errors.New("context deadline exceeded"),
			wantCode: "ERR001",
		},
		{
			name:     "cancelled",
			err:      errors.New("context canceled"),
			wantCode: "ERR002",
		},
		{
			name:     "unrecognized",
			err:      errors.New("something nobody anticipated"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %s, want %s", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got.Code != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}
