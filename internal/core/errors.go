package core

import (
	"fmt"
	"strings"
)

// Kind names a class of pipeline failure.
type Kind string

const (
	KindExtract            Kind = "ExtractError"
	KindSchemaMismatch     Kind = "SchemaMismatchError"
	KindTransform          Kind = "TransformError"
	KindMalformedField     Kind = "MalformedFieldError"
	KindUnknownCategory    Kind = "UnknownCategoryError"
	KindIntegrityViolation Kind = "IntegrityViolationError"
	KindStore              Kind = "StoreError"
	KindInternal           Kind = "InternalError"
)

// ExtractError reports a workbook that could not be opened or parsed.
type ExtractError struct {
	File  string
	Sheet string
	Err   error
}

func (e *ExtractError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("extract %s (sheet %q): %v", e.File, e.Sheet, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
func (e *ExtractError) Kind() Kind    { return KindExtract }

// SchemaMismatchError reports a table whose shape violates a stage precondition.
type SchemaMismatchError struct {
	Stage string
	Want  int
	Got   int
	// Columns holds the offending header, when known.
	Columns []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: schema mismatch: expected %d columns, got %d", e.Stage, e.Want, e.Got)
}

func (e *SchemaMismatchError) Kind() Kind { return KindSchemaMismatch }

// TransformError reports a per-column normalization failure.
type TransformError struct {
	Column string
	// Row is the source identifier of the offending row, if any.
	Row string
	Err error
}

func (e *TransformError) Error() string {
	if e.Row != "" {
		return fmt.Sprintf("transform column %q (row %s): %v", e.Column, e.Row, e.Err)
	}
	return fmt.Sprintf("transform column %q: %v", e.Column, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
func (e *TransformError) Kind() Kind    { return KindTransform }

// MalformedFieldError reports a composite field that cannot be split.
type MalformedFieldError struct {
	Column string
	Row    string
	Value  string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s %q (row %s): expected \"<label> - <description>\"", e.Column, e.Value, e.Row)
}

func (e *MalformedFieldError) Kind() Kind { return KindMalformedField }

// UnknownCategoryError reports a free-text value whose extracted token is unmapped.
type UnknownCategoryError struct {
	Column string
	Row    string
	Raw    string
	Token  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category %q extracted from %q (row %s)", e.Column, e.Token, e.Raw, e.Row)
}

func (e *UnknownCategoryError) Kind() Kind { return KindUnknownCategory }

// IntegrityViolationError reports foreign keys that did not resolve to
// existing dimension rows. No student rows are written when it is returned.
type IntegrityViolationError struct {
	Field   string
	Missing []int64
	// MissingValues lists category values that resolved to no id at all.
	MissingValues []string
	// Rows lists the student ids that referenced the missing keys.
	Rows []string
}

func (e *IntegrityViolationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing ids %v", e.Missing))
	}
	if len(e.MissingValues) > 0 {
		parts = append(parts, fmt.Sprintf("unresolved values %q", e.MissingValues))
	}
	return fmt.Sprintf("integrity violation on %s: %s", e.Field, strings.Join(parts, ", "))
}

func (e *IntegrityViolationError) Kind() Kind { return KindIntegrityViolation }
