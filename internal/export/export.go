// Package export writes analysis records as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/docsift/internal/doctree"
)

const sheet = "Analyses"

var headers = []string{"ID", "Source", "Title", "Words", "Keywords", "Summary", "Table of contents", "Analyzed at"}

// Workbook builds a single-sheet workbook with one row per record.
func Workbook(recs []doctree.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, r := range recs {
		row := i + 2
		values := []any{
			r.ID,
			r.Source,
			r.Title,
			r.TextLength,
			strings.Join(r.Keywords, ", "),
			r.Summary,
			r.TableOfContents,
			"",
		}
		if !r.CreatedAt.IsZero() {
			values[7] = r.CreatedAt.UTC().Format("2006-01-02 15:04:05")
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "C", 32)
	_ = f.SetColWidth(sheet, "D", "D", 8)
	_ = f.SetColWidth(sheet, "E", "E", 40)
	_ = f.SetColWidth(sheet, "F", "G", 60)
	_ = f.SetColWidth(sheet, "H", "H", 20)
	return f, nil
}

// WriteXLSX streams the workbook for recs to w.
func WriteXLSX(w io.Writer, recs []doctree.Record) error {
	f, err := Workbook(recs)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
