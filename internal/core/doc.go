// Package core holds the domain types shared by every stage of the survey ETL.
//
// The pipeline moves data through three shapes:
//
//   - [Table]: ordered header plus string rows, produced by extraction and
//     reshaped by the transform stages.
//   - [CleanRecord]: one typed survey submission, the output of Transform.
//   - Dimension and entity rows, owned by the store and written by the loader.
//
// # Error Handling
//
// Each stage fails with one error type from the taxonomy in errors.go:
//
//   - [ExtractError]: workbook unreadable, empty, or too large
//   - [SchemaMismatchError]: column count precondition violated
//   - [TransformError]: a column was missing or a value unparsable
//   - [MalformedFieldError]: a skill level value had no hyphen
//   - [UnknownCategoryError]: an aim token was not in the lookup table
//   - [IntegrityViolationError]: foreign keys did not resolve
//
// Technical errors are mapped to user-friendly messages with support codes by
// [MapError], and [Describe] folds an error into the [Failure] a run reports.
package core
