package transform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04:05"
)

// StandardizeValues applies the per-column cleaning rules row by row and
// splits a combined timestamp column into registration_date and
// registration_time. Already-standardized values come out unchanged.
func StandardizeValues(t *core.Table, l Lookups) (*core.Table, error) {
	out := t.Clone()

	cols := make(map[string]int)
	for _, name := range []string{
		core.ColReferral, core.ColMotivation, core.ColExperience,
		core.ColAgeRange, core.ColHoursAvailable, core.ColTrack,
	} {
		i, err := out.Index(name)
		if err != nil {
			return nil, err
		}
		cols[name] = i
	}

	lower := cases.Lower(language.Und)
	phrase, label := l.Referral()

	for r, row := range out.Rows {
		if phrase != "" {
			row[cols[core.ColReferral]] = strings.ReplaceAll(row[cols[core.ColReferral]], phrase, label)
		}
		row[cols[core.ColMotivation]] = lower.String(row[cols[core.ColMotivation]])
		row[cols[core.ColExperience]] = strings.ReplaceAll(row[cols[core.ColExperience]], "six", "6")
		row[cols[core.ColAgeRange]] = strings.TrimSpace(strings.ReplaceAll(row[cols[core.ColAgeRange]], "years", ""))
		if v, ok := l.hour(row[cols[core.ColHoursAvailable]]); ok {
			row[cols[core.ColHoursAvailable]] = v
		}
		row[cols[core.ColTrack]] = lower.String(row[cols[core.ColTrack]])
		out.Rows[r] = row
	}

	if ts, err := out.Index(core.ColTimestamp); err == nil {
		return splitTimestamp(out, ts)
	}
	return out, nil
}

// splitTimestamp replaces column ts with registration_date and
// registration_time, placed first.
func splitTimestamp(t *core.Table, ts int) (*core.Table, error) {
	out := &core.Table{
		Columns: append([]string{core.ColRegistrationDate, core.ColRegistrationTime},
			slices.Delete(slices.Clone(t.Columns), ts, ts+1)...),
		Rows:    make([][]string, len(t.Rows)),
		Sources: t.Sources,
	}

	for r, row := range t.Rows {
		date, clock := "", ""
		if raw := strings.TrimSpace(row[ts]); raw != "" {
			when, err := ParseTimestamp(raw)
			if err != nil {
				return nil, &core.TransformError{Column: core.ColTimestamp, Row: t.RowID(r), Err: err}
			}
			date, clock = when.Format(dateFormat), when.Format(timeFormat)
		}
		rest := slices.Delete(slices.Clone(row), ts, ts+1)
		out.Rows[r] = append([]string{date, clock}, rest...)
	}
	return out, nil
}

// ParseTimestamp reads a spreadsheet timestamp. Raw cell values arrive as
// Excel serial day numbers; formatted text is tried against
// core.TimestampLayouts.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("invalid date serial %q", raw)
		}
		when, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return when.Round(time.Second), nil
	}

	for _, layout := range core.TimestampLayouts {
		if when, err := time.Parse(layout, raw); err == nil {
			return when, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
