package core

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Category identifies one of the dimension tables derived from clean records.
type Category string

const (
	CategoryAgeRange       Category = "age_range"
	CategoryCountry        Category = "country"
	CategoryExperience     Category = "experience"
	CategoryTrack          Category = "track"
	CategoryReferral       Category = "referral"
	CategorySkillLevel     Category = "skill_level"
	CategoryAim            Category = "aim"
	CategoryHoursAvailable Category = "hours_available"
)

// Categories lists every dimension in build and load order.
var Categories = []Category{
	CategoryAgeRange,
	CategoryCountry,
	CategoryExperience,
	CategoryTrack,
	CategoryReferral,
	CategorySkillLevel,
	CategoryAim,
	CategoryHoursAvailable,
}

// Raw column names after positional renaming.
const (
	ColTimestamp         = "timestamp"
	ColID                = "id"
	ColAgeRange          = "age_range"
	ColGender            = "gender"
	ColCountry           = "country"
	ColReferral          = "referral"
	ColExperience        = "experience"
	ColTrack             = "track"
	ColHoursAvailable    = "hours_available"
	ColAim               = "aim"
	ColMotivation        = "motivation"
	ColSkillLevel        = "skill_level"
	ColCompletedAptitude = "completed_aptitude"
	ColAptitudeScore     = "aptitude_score"
	ColGraduated         = "graduated"

	ColRegistrationDate = "registration_date"
	ColRegistrationTime = "registration_time"
	ColSkillDescription = "skill_description"
)

// RawColumns is the default 15-column canonical raw layout.
var RawColumns = []string{
	ColTimestamp, ColID, ColAgeRange, ColGender, ColCountry, ColReferral,
	ColExperience, ColTrack, ColHoursAvailable, ColAim, ColMotivation,
	ColSkillLevel, ColCompletedAptitude, ColAptitudeScore, ColGraduated,
}

// CleanColumns is the 17-column layout every clean table must match.
var CleanColumns = []string{
	ColRegistrationDate, ColRegistrationTime, ColID, ColAgeRange, ColGender,
	ColCountry, ColReferral, ColExperience, ColTrack, ColHoursAvailable,
	ColAim, ColMotivation, ColSkillLevel, ColSkillDescription,
	ColCompletedAptitude, ColAptitudeScore, ColGraduated,
}

// RowSource locates a row in the workbook it came from.
type RowSource struct {
	Sheet string
	Line  int // 1-based row number within the sheet, header is line 1
}

func (s RowSource) String() string {
	return fmt.Sprintf("%s:%d", s.Sheet, s.Line)
}

// Table is an ordered header plus string rows. It is the shape data takes
// between extraction and the end of the transform stages.
type Table struct {
	Columns []string
	Rows    [][]string
	Sources []RowSource
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, &TransformError{Column: name, Err: fmt.Errorf("column not found")}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
		Sources: append([]RowSource(nil), t.Sources...),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// RowID returns the value of the id column for row i, or its source
// location when the table has no id column.
func (t *Table) RowID(i int) string {
	for c, name := range t.Columns {
		if name == ColID && c < len(t.Rows[i]) && t.Rows[i][c] != "" {
			return t.Rows[i][c]
		}
	}
	if i < len(t.Sources) {
		return t.Sources[i].String()
	}
	return fmt.Sprintf("#%d", i+1)
}

// CleanRecord is one fully standardized survey submission.
type CleanRecord struct {
	RegistrationDate  pgtype.Date
	RegistrationTime  pgtype.Time
	ID                string
	AgeRange          string
	Gender            string
	Country           string
	Referral          string
	Experience        string
	Track             string
	HoursAvailable    string
	Aim               string
	Motivation        string
	SkillLevel        string
	SkillDescription  string
	CompletedAptitude pgtype.Bool
	AptitudeScore     pgtype.Float8
	Graduated         pgtype.Bool

	Source RowSource
}

// CategoryValue returns the record's value for a single-valued category.
// For CategorySkillLevel only the label is returned; see SkillDescription.
func (r *CleanRecord) CategoryValue(c Category) string {
	switch c {
	case CategoryAgeRange:
		return r.AgeRange
	case CategoryCountry:
		return r.Country
	case CategoryExperience:
		return r.Experience
	case CategoryTrack:
		return r.Track
	case CategoryReferral:
		return r.Referral
	case CategorySkillLevel:
		return r.SkillLevel
	case CategoryAim:
		return r.Aim
	case CategoryHoursAvailable:
		return r.HoursAvailable
	}
	return ""
}
