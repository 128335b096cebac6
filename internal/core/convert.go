package core

// convert.go provides type conversion functions for spreadsheet cells to PostgreSQL types.
//
// These functions handle the messy reality of survey exports:
//   - Multiple date formats (ISO, US, day-first with month names)
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value")
//   - Stray quotes and non-breaking spaces
//
// All ToPg* functions return pgtype values with Valid=false for empty/invalid input,
// allowing the database to handle NULLs appropriately.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Layouts shared by the date and time converters and by timestamp parsing.
var (
	DateLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"Jan 2, 2006", "2 Jan 2006", "20060102",
	}
	TimeLayouts = []string{
		"15:04:05", "15:04", "15:04:05.000", "3:04:05 PM", "3:04 PM",
	}
	TimestampLayouts = []string{
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
		"2006-01-02 15:04", "2006/01/02 15:04:05",
		"1/2/2006 15:04:05", "1/2/2006 15:04", "01/02/2006 15:04:05",
		"1/2/2006 3:04:05 PM", "1/2/2006 3:04 PM",
		"2006-01-02",
	}
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}
	return pgtype.Date{Valid: false}
}

// ToPgTime converts a time-of-day string to pgtype.Time
// (microseconds since midnight).
func ToPgTime(s string) pgtype.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Time{Valid: false}
	}
	for _, layout := range TimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay(t)
		}
	}
	return pgtype.Time{Valid: false}
}

// TimeOfDay returns the clock portion of t as a pgtype.Time.
func TimeOfDay(t time.Time) pgtype.Time {
	d := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

// FormatTime renders a pgtype.Time as HH:MM:SS. Invalid values render empty.
func FormatTime(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	return time.Time{}.Add(d).Format("15:04:05")
}

// ToPgFloat8 converts a string to pgtype.Float8.
// Thousands separators are dropped; anything else non-numeric is invalid.
func ToPgFloat8(s string) pgtype.Float8 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || !numericRegex.MatchString(s) {
		return pgtype.Float8{Valid: false}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
