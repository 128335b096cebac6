package core

// error_messages.go defines user-friendly error messages with codes for support
// reference. When an ETL run fails, operators can quote the code printed next to
// the message to get faster help.
//
// Error codes are grouped by category:
//
// # Pipeline Errors (EXT, SCH, TRF, FLD, CAT, INT)
//
// Matched by error type, before any pattern is consulted:
//
//	EXT001 - Workbook unreadable: the file could not be opened or parsed
//	EXT002 - Workbook empty: the file holds no sheets or no header row
//	EXT003 - Workbook too large: the file exceeds PIPELINE_MAX_FILE_SIZE
//	SCH001 - Column count mismatch: the merged sheet does not have the expected columns
//	TRF001 - Column transform failed: a column was missing or a value could not be parsed
//	FLD001 - Malformed skill level: a value lacks the "<label> - <description>" hyphen
//	CAT001 - Unknown aim: the aim text did not map to a known category
//	INT001 - Integrity violation: foreign keys did not resolve to dimension rows
//
// # Database Errors (DB001-DB099)
//
// Errors related to database operations and constraints:
//
//	DB001 - Duplicate key: A record with this ID already exists
//	DB002 - Unique constraint: This value must be unique but already exists
//	DB003 - Foreign key: Referenced record does not exist
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Deadlock: Database was busy with conflicting operations
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Pipeline busy: another run holds the only slot
//	RUN002 - Run cancelled: the context was cancelled
//	RUN003 - Run timed out: PIPELINE_TIMEOUT elapsed
//
// # Default Error (ERR000)
//
// Fallback when no specific type or pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes wrapped inside ExtractError.
var (
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
	ErrNoHeader      = errors.New("first sheet has no header row")
	ErrFileTooLarge  = errors.New("file too large")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgExtract = UserMessage{
		Message: "The workbook could not be read",
		Action:  "Check that the file is a valid .xlsx export and try again",
		Code:    "EXT001",
	}
	msgEmptyWorkbook = UserMessage{
		Message: "The workbook contains no data",
		Action:  "Export the survey again with its header row",
		Code:    "EXT002",
	}
	msgTooLarge = UserMessage{
		Message: "The workbook exceeds the maximum size limit",
		Action:  "Split the export into smaller files or raise PIPELINE_MAX_FILE_SIZE",
		Code:    "EXT003",
	}
	msgSchema = UserMessage{
		Message: "The sheet does not have the expected columns",
		Action:  "Make sure the export has exactly the 15 survey columns in order",
		Code:    "SCH001",
	}
	msgTransform = UserMessage{
		Message: "A column could not be standardized",
		Action:  "Check the named column and row for missing or unparsable values",
		Code:    "TRF001",
	}
	msgMalformed = UserMessage{
		Message: "A skill level value is malformed",
		Action:  "Use the form \"<label> - <description>\" for skill level answers",
		Code:    "FLD001",
	}
	msgUnknownCategory = UserMessage{
		Message: "An aim answer does not match a known category",
		Action:  "Correct the answer or add the token to the aims lookup file",
		Code:    "CAT001",
	}
	msgIntegrity = UserMessage{
		Message: "Some records reference categories that do not exist",
		Action:  "Nothing was saved; review the named field and reload",
		Code:    "INT001",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check the export for repeated submission ids",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in the export",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the export for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Run the migrations and reload the file",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Run the migrations and reload the file",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN003)
	// =========================================================================
	{
		pattern: "pipeline busy",
		msg: UserMessage{
			Message: "Another load is already running",
			Action:  "Wait for it to finish and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Nothing was saved; start the load again when ready",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Nothing was saved; raise PIPELINE_TIMEOUT or try a smaller file",
			Code:    "RUN003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the run id and contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Pipeline error types are recognised first with errors.As; otherwise the
// known error patterns are searched case-insensitively. If nothing matches,
// a generic fallback message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var (
		extractErr   *ExtractError
		schemaErr    *SchemaMismatchError
		transformErr *TransformError
		malformedErr *MalformedFieldError
		categoryErr  *UnknownCategoryError
		integrityErr *IntegrityViolationError
	)

	switch {
	case errors.As(err, &extractErr):
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return msgTooLarge, true
		case errors.Is(err, ErrEmptyWorkbook), errors.Is(err, ErrNoHeader):
			return msgEmptyWorkbook, true
		}
		return msgExtract, true
	case errors.As(err, &schemaErr):
		return msgSchema, true
	case errors.As(err, &malformedErr):
		return msgMalformed, true
	case errors.As(err, &categoryErr):
		return msgUnknownCategory, true
	case errors.As(err, &transformErr):
		return msgTransform, true
	case errors.As(err, &integrityErr):
		return msgIntegrity, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known type or pattern.
// Returns true if the error is not the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
