package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX reads one worksheet of a workbook export of the dataset. The first
// row must be the header.
type XLSX struct {
	path  string
	sheet string
}

// NewXLSXFile returns a workbook source. An empty sheet selects the first
// worksheet.
func NewXLSXFile(path, sheet string) *XLSX {
	return &XLSX{path: path, sheet: sheet}
}

func (x *XLSX) Name() string { return "xlsx:" + x.path }

func (x *XLSX) Each(ctx context.Context, fn RowFunc) error {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", x.path, err)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return fmt.Errorf("workbook %s has no sheet %q", x.path, sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var (
		h   header
		row int
	)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row++
		cells, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row %d: %w", row, err)
		}

		if h == nil {
			if isBlank(cells) {
				continue
			}
			if h, err = newHeader(cells); err != nil {
				return &RowError{Row: row, Err: err}
			}
			continue
		}

		rec, skip, err := h.record(cells)
		if skip {
			continue
		}
		if err != nil {
			err = &RowError{Row: row, Err: err}
		}
		if err := fn(row, rec, err); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("iterate sheet %q: %w", sheet, err)
	}
	return nil
}
