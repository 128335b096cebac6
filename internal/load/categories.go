package load

import (
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// DimensionKey is the natural key of a dimension row. Description is only
// used by the skill level dimension.
type DimensionKey struct {
	Value       string
	Description string
}

// KeyFor returns the record's key in category c.
func KeyFor(r *core.CleanRecord, c core.Category) DimensionKey {
	if c == core.CategorySkillLevel {
		return DimensionKey{Value: r.SkillLevel, Description: r.SkillDescription}
	}
	return DimensionKey{Value: r.CategoryValue(c)}
}

// CategoryEntry is one row of a category table.
type CategoryEntry struct {
	ID  int
	Key DimensionKey
}

// CategoryTable holds the distinct keys of one category with surrogate ids
// 1..n assigned in first-seen order.
type CategoryTable struct {
	Category core.Category
	keys     []DimensionKey
	ids      map[DimensionKey]int
}

func newCategoryTable(c core.Category) *CategoryTable {
	return &CategoryTable{Category: c, ids: make(map[DimensionKey]int)}
}

func (t *CategoryTable) add(k DimensionKey) int {
	if id, ok := t.ids[k]; ok {
		return id
	}
	t.keys = append(t.keys, k)
	id := len(t.keys)
	t.ids[k] = id
	return id
}

// Len returns the number of distinct keys.
func (t *CategoryTable) Len() int { return len(t.keys) }

// IDOf returns the surrogate id of k.
func (t *CategoryTable) IDOf(k DimensionKey) (int, bool) {
	id, ok := t.ids[k]
	return id, ok
}

// KeyOf returns the key with surrogate id.
func (t *CategoryTable) KeyOf(id int) (DimensionKey, bool) {
	if id < 1 || id > len(t.keys) {
		return DimensionKey{}, false
	}
	return t.keys[id-1], true
}

// Entries returns the table rows in id order.
func (t *CategoryTable) Entries() []CategoryEntry {
	out := make([]CategoryEntry, len(t.keys))
	for i, k := range t.keys {
		out[i] = CategoryEntry{ID: i + 1, Key: k}
	}
	return out
}

// CategoryTables is the full set of category tables for one batch of records.
type CategoryTables struct {
	tables map[core.Category]*CategoryTable
}

// Get returns the table for c.
func (ts *CategoryTables) Get(c core.Category) *CategoryTable {
	return ts.tables[c]
}

// All returns every table in core.Categories order.
func (ts *CategoryTables) All() []*CategoryTable {
	out := make([]*CategoryTable, 0, len(core.Categories))
	for _, c := range core.Categories {
		out = append(out, ts.tables[c])
	}
	return out
}

// BuildCategoryTables derives one table per category from records. The
// result depends only on the records and their order.
func BuildCategoryTables(records []core.CleanRecord) *CategoryTables {
	ts := &CategoryTables{tables: make(map[core.Category]*CategoryTable, len(core.Categories))}
	for _, c := range core.Categories {
		ts.tables[c] = newCategoryTable(c)
	}
	for i := range records {
		for _, c := range core.Categories {
			ts.tables[c].add(KeyFor(&records[i], c))
		}
	}
	return ts
}
