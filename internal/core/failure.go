package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure is the single structured outcome reported for a failed run.
type Failure struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Action     string `json:"action"`
	File       string `json:"file,omitempty"`
	Sheet      string `json:"sheet,omitempty"`
	Row        string `json:"row,omitempty"`
	Column     string `json:"column,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Detail     string `json:"detail"`
}

func (f *Failure) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (Code: %s)", f.Kind, f.Message, f.Code)
	if f.Column != "" {
		fmt.Fprintf(&b, " column=%s", f.Column)
	}
	if f.Row != "" {
		fmt.Fprintf(&b, " row=%s", f.Row)
	}
	if f.Identifier != "" && f.Identifier != f.Row {
		fmt.Fprintf(&b, " id=%s", f.Identifier)
	}
	return b.String()
}

// Describe converts err into a Failure. It returns nil for a nil error.
func Describe(err error) *Failure {
	if err == nil {
		return nil
	}
	msg := MapError(err)
	f := &Failure{
		Kind:    KindInternal,
		Message: msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
		Detail:  err.Error(),
	}

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
		f.Kind = KindExtract
		f.File = extractErr.File
		f.Sheet = extractErr.Sheet
		f.Identifier = extractErr.File
	case errors.As(err, &schemaErr):
		f.Kind = KindSchemaMismatch
		f.Column = strings.Join(schemaErr.Columns, ",")
		f.Identifier = schemaErr.Stage
	case errors.As(err, &malformedErr):
		f.Kind = KindMalformedField
		f.Column = malformedErr.Column
		f.Row = malformedErr.Row
		f.Identifier = malformedErr.Value
	case errors.As(err, &categoryErr):
		f.Kind = KindUnknownCategory
		f.Column = categoryErr.Column
		f.Row = categoryErr.Row
		f.Identifier = categoryErr.Raw
	case errors.As(err, &transformErr):
		f.Kind = KindTransform
		f.Column = transformErr.Column
		f.Row = transformErr.Row
		f.Identifier = transformErr.Row
	case errors.As(err, &integrityErr):
		f.Kind = KindIntegrityViolation
		f.Column = integrityErr.Field
		f.Identifier = strings.Join(integrityErr.Rows, ",")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.Kind = KindInternal
	case strings.HasPrefix(msg.Code, "DB"):
		f.Kind = KindStore
	}
	return f
}
