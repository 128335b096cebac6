// Package extract reads survey workbooks into a single unified table.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/logging"
)

// SkippedSheet records a sheet left out of the merge.
type SkippedSheet struct {
	Name   string
	Reason string
}

// MergeResult is the outcome of merging a workbook.
type MergeResult struct {
	File    string
	Table   *core.Table
	Sheets  []string // merged sheets, in workbook order
	Skipped []SkippedSheet
}

// Merger concatenates the sheets of a workbook that share the first sheet's
// header, compared case-insensitively.
type Merger struct {
	maxFileSize int64
}

// NewMerger creates a Merger. A maxFileSize of 0 disables the size check.
func NewMerger(maxFileSize int64) *Merger {
	return &Merger{maxFileSize: maxFileSize}
}

// Merge reads src and returns the rows of every sheet whose lower-cased
// header equals the first sheet's, in sheet order then row order. Other
// sheets are reported in MergeResult.Skipped.
func (m *Merger) Merge(ctx context.Context, src Source) (*MergeResult, error) {
	log := logging.WithFields(ctx, "stage", "extract", "file", src.Name())

	data, err := readLimited(src, m.maxFileSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &core.ExtractError{File: src.Name(), Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &core.ExtractError{File: src.Name(), Err: core.ErrEmptyWorkbook}
	}

	result := &MergeResult{File: src.Name(), Table: &core.Table{}}
	var header []string

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &core.ExtractError{File: src.Name(), Sheet: sheet, Err: err}
		}

		start := firstNonEmpty(rows)
		if start < 0 {
			if i == 0 {
				return nil, &core.ExtractError{File: src.Name(), Sheet: sheet, Err: core.ErrNoHeader}
			}
			result.skip(log, sheet, "sheet is empty")
			continue
		}
		sheetHeader := normalizeHeader(rows[start])

		if i == 0 {
			header = sheetHeader
			result.Table.Columns = slices.Clone(header)
		} else if !slices.Equal(header, sheetHeader) {
			result.skip(log, sheet, fmt.Sprintf("header %v does not match %v", sheetHeader, header))
			continue
		}

		n := 0
		for r := start + 1; r < len(rows); r++ {
			if isEmptyRow(rows[r]) {
				continue
			}
			result.Table.Rows = append(result.Table.Rows, fitRow(rows[r], len(header)))
			result.Table.Sources = append(result.Table.Sources, core.RowSource{Sheet: sheet, Line: r + 1})
			n++
		}
		result.Sheets = append(result.Sheets, sheet)
		log.Debug("sheet merged", "sheet", sheet, "rows", n)
	}

	log.Info("workbook merged",
		"sheets", len(result.Sheets),
		"skipped", len(result.Skipped),
		"rows", len(result.Table.Rows),
	)
	return result, nil
}

func (r *MergeResult) skip(log *slog.Logger, sheet, reason string) {
	r.Skipped = append(r.Skipped, SkippedSheet{Name: sheet, Reason: reason})
	log.Warn("sheet skipped", "sheet", sheet, "reason", reason)
}

// normalizeHeader lower-cases and cleans header cells, dropping trailing
// blank cells.
func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = strings.ToLower(core.CleanCell(h))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// fitRow trims cells and pads or cuts the row to width.
func fitRow(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

func firstNonEmpty(rows [][]string) int {
	for i, r := range rows {
		if !isEmptyRow(r) {
			return i
		}
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
