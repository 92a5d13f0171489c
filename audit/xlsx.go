package audit

// xlsx.go — audit report export using the excelize library.
// The "Audit" sheet mirrors the Markdown table; the "Text" sheet holds the
// extracted text of every successful document for side-by-side review.

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	auditSheet = "Audit"
	textSheet  = "Text"
)

// WriteXLSX saves the report as a workbook at path.
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, auditSheet, 1, header); err != nil {
		return err
	}
	for i, row := range r.Rows {
		if err := setRow(f, auditSheet, i+2, row.cells()); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(textSheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", textSheet, err)
	}
	if err := setRow(f, textSheet, 1, []string{"File", "Text"}); err != nil {
		return err
	}
	next := 2
	for _, row := range r.Rows {
		if row.Err != nil {
			continue
		}
		if err := setRow(f, textSheet, next, []string{row.Path, row.Text}); err != nil {
			return err
		}
		next++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowNum, err)
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
