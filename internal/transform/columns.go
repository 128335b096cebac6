package transform

import (
	"slices"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// NormalizeColumns renames the table's columns positionally to names.
// The i-th column becomes names[i] whatever it was called before; values are
// untouched and the input table is not modified.
func NormalizeColumns(t *core.Table, names []string) (*core.Table, error) {
	if len(t.Columns) != len(names) {
		return nil, &core.SchemaMismatchError{
			Stage:   "normalize columns",
			Want:    len(names),
			Got:     len(t.Columns),
			Columns: slices.Clone(t.Columns),
		}
	}

	out := t.Clone()
	copy(out.Columns, names)
	return out, nil
}

// requireLayout fails unless the table's header equals want exactly.
func requireLayout(stage string, t *core.Table, want []string) error {
	if slices.Equal(t.Columns, want) {
		return nil
	}
	return &core.SchemaMismatchError{
		Stage:   stage,
		Want:    len(want),
		Got:     len(t.Columns),
		Columns: slices.Clone(t.Columns),
	}
}

// reorder returns a copy of t with its columns arranged as layout.
// Every layout column must exist in t.
func reorder(t *core.Table, layout []string) (*core.Table, error) {
	idx := make([]int, len(layout))
	for i, name := range layout {
		j, err := t.Index(name)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}

	out := &core.Table{
		Columns: slices.Clone(layout),
		Rows:    make([][]string, len(t.Rows)),
		Sources: slices.Clone(t.Sources),
	}
	for r, row := range t.Rows {
		nr := make([]string, len(layout))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.Rows[r] = nr
	}
	return out, nil
}
