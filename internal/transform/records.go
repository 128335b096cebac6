package transform

import (
	"fmt"
	"strings"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// BuildRecords converts a table laid out as core.CleanColumns into typed
// records. Empty scalar cells become NULLs; non-empty cells that fail to
// parse are errors.
func BuildRecords(t *core.Table) ([]core.CleanRecord, error) {
	if err := requireLayout("build records", t, core.CleanColumns); err != nil {
		return nil, err
	}

	records := make([]core.CleanRecord, 0, len(t.Rows))
	for r, row := range t.Rows {
		rec, err := buildRecord(row)
		if err != nil {
			if te, ok := err.(*core.TransformError); ok {
				te.Row = t.RowID(r)
			}
			return nil, err
		}
		if r < len(t.Sources) {
			rec.Source = t.Sources[r]
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildRecord relies on row being in core.CleanColumns order.
func buildRecord(row []string) (core.CleanRecord, error) {
	rec := core.CleanRecord{
		ID:               strings.TrimSpace(row[2]),
		AgeRange:         strings.TrimSpace(row[3]),
		Gender:           strings.TrimSpace(row[4]),
		Country:          strings.TrimSpace(row[5]),
		Referral:         strings.TrimSpace(row[6]),
		Experience:       strings.TrimSpace(row[7]),
		Track:            strings.TrimSpace(row[8]),
		HoursAvailable:   strings.TrimSpace(row[9]),
		Aim:              strings.TrimSpace(row[10]),
		Motivation:       strings.TrimSpace(row[11]),
		SkillLevel:       row[12],
		SkillDescription: row[13],
	}
	if rec.ID == "" {
		return rec, &core.TransformError{Column: core.ColID, Err: fmt.Errorf("required field is empty")}
	}

	if v := row[0]; strings.TrimSpace(v) != "" {
		if rec.RegistrationDate = core.ToPgDate(v); !rec.RegistrationDate.Valid {
			return rec, &core.TransformError{Column: core.ColRegistrationDate, Err: fmt.Errorf("invalid date %q", v)}
		}
	}
	if v := row[1]; strings.TrimSpace(v) != "" {
		if rec.RegistrationTime = core.ToPgTime(v); !rec.RegistrationTime.Valid {
			return rec, &core.TransformError{Column: core.ColRegistrationTime, Err: fmt.Errorf("invalid time %q", v)}
		}
	}
	if v := row[14]; strings.TrimSpace(v) != "" {
		if rec.CompletedAptitude = core.ToPgBool(v); !rec.CompletedAptitude.Valid {
			return rec, &core.TransformError{Column: core.ColCompletedAptitude, Err: fmt.Errorf("invalid boolean %q", v)}
		}
	}
	if v := row[15]; strings.TrimSpace(v) != "" {
		if rec.AptitudeScore = core.ToPgFloat8(v); !rec.AptitudeScore.Valid {
			return rec, &core.TransformError{Column: core.ColAptitudeScore, Err: fmt.Errorf("invalid number %q", v)}
		}
	}
	if v := row[16]; strings.TrimSpace(v) != "" {
		if rec.Graduated = core.ToPgBool(v); !rec.Graduated.Valid {
			return rec, &core.TransformError{Column: core.ColGraduated, Err: fmt.Errorf("invalid boolean %q", v)}
		}
	}
	return rec, nil
}
