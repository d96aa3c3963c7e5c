package web

// messages.go defines user-friendly error messages with codes for support
// reference. When operators hit an error, they can quote the code for
// faster diagnosis.
//
// Error codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: The dataset file could not be opened
//	         Action: Check that the file exists and is readable
//
// # Parse Errors (PRS001-PRS099)
//
//	PRS001 - Invalid CSV: The file is not structurally valid CSV
//	         Action: Re-export the dataset and try again
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing columns: Declared columns are absent from the file
//	         Action: Check the export against the dataset's schema
//
// # Join Errors (KEY001-KEY099)
//
//	KEY001 - Key column missing: A join key column is absent
//	         Action: Check the relation's key columns against both files
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run in progress: Another integrity run is already active
//	         Action: Wait for the active run to finish, then retry
//	RUN002 - No completed run: No integrity run has finished yet
//	         Action: Trigger a run with POST /api/runs
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - History disabled: No database is configured
//	          Action: Set DATABASE_URL to enable run history
//	HIST002 - Run not found: No run with that ID exists
//	          Action: List runs with GET /api/runs to find valid IDs
//
// # Request Errors (DATA001-DATA099, REQ001-REQ099, RATE001)
//
//	DATA001 - Unknown dataset
//	DATA002 - Unknown relation or no joined table yet
//	REQ001  - Malformed run ID
//	RATE001 - Rate limit exceeded

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/pipeline"
	"github.com/JonMunkholm/DataCheck/internal/validate"
)

// UserMessage is what a client sees when something goes wrong.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// defaultMessage is the fallback for errors no mapping recognizes.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the server logs and try again",
	Code:    "ERR000",
}

// errorPattern defines a message-substring match and its user message.
// Used as a fallback when no typed mapping applies.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error substrings (case-insensitive) to user
// messages. The first matching pattern wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "no completed run",
		msg: UserMessage{
			Message: "No integrity run has finished yet",
			Action:  "Trigger a run with POST /api/runs",
			Code:    "RUN002",
		},
	},
	{
		pattern: "persistence is disabled",
		msg: UserMessage{
			Message: "No database is configured for run history",
			Action:  "Set DATABASE_URL to enable run history",
			Code:    "HIST001",
		},
	},
	{
		pattern: "unknown dataset",
		msg: UserMessage{
			Message: "No dataset with that name is registered",
			Action:  "List datasets with GET /api/datasets",
			Code:    "DATA001",
		},
	},
	{
		pattern: "no joined table",
		msg: UserMessage{
			Message: "No joined table exists for that relation",
			Action:  "Run a check first, then check the relation name",
			Code:    "DATA002",
		},
	},
	{
		pattern: "invalid run id",
		msg: UserMessage{
			Message: "The run ID is not a valid UUID",
			Action:  "Copy the ID from GET /api/runs",
			Code:    "REQ001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "HIST003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try again, or raise the server timeouts",
			Code:    "ERR001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The operation was cancelled",
			Action:  "Retry the request",
			Code:    "ERR002",
		},
	},
}

// MapError converts a technical error to a user-friendly message.
// Typed errors from the pipeline map directly; anything else falls back
// to substring matching, then to the generic ERR000 message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var parseErr *load.ParseError
	var keyErr *join.KeyColumnMissingError

	switch {
	case errors.Is(err, load.ErrSourceUnavailable):
		return UserMessage{
			Message: "The dataset file could not be opened",
			Action:  "Check that the file exists and is readable",
			Code:    "SRC001",
		}
	case errors.As(err, &parseErr):
		return UserMessage{
			Message: "The file is not structurally valid CSV",
			Action:  "Re-export the dataset and try again",
			Code:    "PRS001",
		}
	case errors.Is(err, validate.ErrSchemaMismatch):
		return UserMessage{
			Message: "Declared columns are absent from the file",
			Action:  "Check the export against the dataset's schema",
			Code:    "SCH001",
		}
	case errors.As(err, &keyErr):
		return UserMessage{
			Message: "A join key column is absent",
			Action:  "Check the relation's key columns against both files",
			Code:    "KEY001",
		}
	case errors.Is(err, pipeline.ErrRunInProgress):
		return UserMessage{
			Message: "Another integrity run is already active",
			Action:  "Wait for the active run to finish, then retry",
			Code:    "RUN001",
		}
	case errors.Is(err, pgx.ErrNoRows):
		return UserMessage{
			Message: "No run with that ID exists",
			Action:  "List runs with GET /api/runs to find valid IDs",
			Code:    "HIST002",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
