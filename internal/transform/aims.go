package transform

import (
	"strings"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// AimToken extracts the lookup token from a free-text aim answer: the second
// word when the first is "learn" (any case), otherwise the first word,
// lower-cased. It returns "" when there is no such word.
func AimToken(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}
	token := words[0]
	if strings.EqualFold(token, "learn") {
		if len(words) < 2 {
			return ""
		}
		token = words[1]
	}
	return strings.ToLower(token)
}

// MapAims replaces every aim answer with its category from the aims table.
// An answer whose token is not in the table fails the whole stage.
func MapAims(t *core.Table, l Lookups) (*core.Table, error) {
	if err := requireLayout("map aims", t, core.CleanColumns); err != nil {
		return nil, err
	}
	col, err := t.Index(core.ColAim)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for r, row := range out.Rows {
		raw := row[col]
		token := AimToken(raw)
		category, ok := l.aim(token)
		if !ok {
			return nil, &core.UnknownCategoryError{
				Column: core.ColAim,
				Row:    out.RowID(r),
				Raw:    raw,
				Token:  token,
			}
		}
		row[col] = category
	}
	return out, nil
}
