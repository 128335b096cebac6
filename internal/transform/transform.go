// Package transform turns a merged survey table into typed clean records.
//
// The stages run in a fixed order and each one fails fast:
//
//  1. NormalizeColumns: positional rename to the canonical raw columns
//  2. StandardizeValues: lookup substitutions, string cleaning, timestamp split
//  3. SplitSkillLevel: "<label> - <description>" split and column reorder
//  4. MapAims: free-text aim to aim category
//  5. BuildRecords: typed core.CleanRecord values
package transform

import (
	"context"
	"fmt"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/logging"
)

// Transformer runs the transform stages with a fixed set of lookup tables.
type Transformer struct {
	lookups Lookups
}

// New creates a Transformer.
func New(l Lookups) *Transformer {
	return &Transformer{lookups: l}
}

// Lookups returns the tables the transformer was built with.
func (tr *Transformer) Lookups() Lookups {
	return tr.lookups
}

// Clean runs every stage on t. The input table is not modified.
func (tr *Transformer) Clean(ctx context.Context, t *core.Table) ([]core.CleanRecord, error) {
	log := logging.WithFields(ctx, "stage", "transform")

	table, err := NormalizeColumns(t, tr.lookups.Columns())
	if err != nil {
		return nil, fmt.Errorf("normalize columns: %w", err)
	}

	table, err = StandardizeValues(table, tr.lookups)
	if err != nil {
		return nil, fmt.Errorf("standardize values: %w", err)
	}

	table, err = SplitSkillLevel(table)
	if err != nil {
		return nil, fmt.Errorf("split skill level: %w", err)
	}

	table, err = MapAims(table, tr.lookups)
	if err != nil {
		return nil, fmt.Errorf("map aims: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := BuildRecords(table)
	if err != nil {
		return nil, fmt.Errorf("build records: %w", err)
	}

	log.Info("transform complete", "rows", len(records))
	return records, nil
}
