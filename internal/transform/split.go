package transform

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// SplitSkillLevel splits "<label> - <description>" skill level values on the
// first hyphen into skill_level and skill_description, then arranges the
// table as core.CleanColumns. Later hyphens stay in the description.
func SplitSkillLevel(t *core.Table) (*core.Table, error) {
	sl, err := t.Index(core.ColSkillLevel)
	if err != nil {
		return nil, err
	}

	lower := cases.Lower(language.Und)
	out := &core.Table{
		Columns: slices.Insert(slices.Clone(t.Columns), sl+1, core.ColSkillDescription),
		Rows:    make([][]string, len(t.Rows)),
		Sources: t.Sources,
	}

	for r, row := range t.Rows {
		label, desc, ok := strings.Cut(row[sl], "-")
		if !ok {
			return nil, &core.MalformedFieldError{
				Column: core.ColSkillLevel,
				Row:    t.RowID(r),
				Value:  row[sl],
			}
		}
		nr := slices.Clone(row)
		nr[sl] = lower.String(strings.TrimSpace(label))
		out.Rows[r] = slices.Insert(nr, sl+1, lower.String(strings.TrimSpace(desc)))
	}

	if len(out.Columns) != len(core.CleanColumns) {
		return nil, &core.SchemaMismatchError{
			Stage:   "split skill level",
			Want:    len(core.CleanColumns),
			Got:     len(out.Columns),
			Columns: slices.Clone(out.Columns),
		}
	}
	return reorder(out, core.CleanColumns)
}
