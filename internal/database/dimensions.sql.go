package database

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
)

// DimensionTables lists every lookup table in the schema.
var DimensionTables = []string{
	"age_range",
	"country",
	"experience",
	"track",
	"referral",
	"skill_level",
	"aim",
	"hours_available",
}

// SkillLevelTable is the only dimension keyed by (value, description).
const SkillLevelTable = "skill_level"

func dimensionTable(name string) (string, error) {
	if !slices.Contains(DimensionTables, name) {
		return "", fmt.Errorf("unknown dimension table %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

const upsertDimension = `
INSERT INTO %s (value)
VALUES ($1)
ON CONFLICT (value) DO UPDATE SET value = EXCLUDED.value
RETURNING id
`

// UpsertDimension inserts value into table if absent and returns its id.
func (q *Queries) UpsertDimension(ctx context.Context, table string, value string) (int64, error) {
	ident, err := dimensionTable(table)
	if err != nil {
		return 0, err
	}
	if table == SkillLevelTable {
		return 0, fmt.Errorf("%s is keyed by value and description", table)
	}
	row := q.db.QueryRow(ctx, fmt.Sprintf(upsertDimension, ident), value)
	var id int64
	err = row.Scan(&id)
	return id, err
}

const upsertSkillLevel = `
INSERT INTO skill_level (value, description)
VALUES ($1, $2)
ON CONFLICT (value, description) DO UPDATE SET value = EXCLUDED.value
RETURNING id
`

type UpsertSkillLevelParams struct {
	Value       string
	Description string
}

func (q *Queries) UpsertSkillLevel(ctx context.Context, arg UpsertSkillLevelParams) (int64, error) {
	row := q.db.QueryRow(ctx, upsertSkillLevel, arg.Value, arg.Description)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listDimension = `
SELECT id, value, %s FROM %s ORDER BY id
`

// ListDimension returns every row of table in id order.
func (q *Queries) ListDimension(ctx context.Context, table string) ([]Dimension, error) {
	ident, err := dimensionTable(table)
	if err != nil {
		return nil, err
	}
	description := "''::text"
	if table == SkillLevelTable {
		description = "description"
	}
	rows, err := q.db.Query(ctx, fmt.Sprintf(listDimension, description, ident))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dimension
	for rows.Next() {
		var i Dimension
		if err := rows.Scan(&i.ID, &i.Value, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const existingDimensionIDs = `
SELECT id FROM %s WHERE id = ANY($1::bigint[])
`

// ExistingDimensionIDs returns the subset of ids present in table.
func (q *Queries) ExistingDimensionIDs(ctx context.Context, table string, ids []int64) ([]int64, error) {
	ident, err := dimensionTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, fmt.Sprintf(existingDimensionIDs, ident), ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

const countRows = `
SELECT count(*) FROM %s
`

// CountRows returns the number of rows in a dimension or entity table.
func (q *Queries) CountRows(ctx context.Context, table string) (int64, error) {
	if !slices.Contains(DimensionTables, table) && !slices.Contains(EntityTables, table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	row := q.db.QueryRow(ctx, fmt.Sprintf(countRows, pgx.Identifier{table}.Sanitize()))
	var n int64
	err := row.Scan(&n)
	return n, err
}
