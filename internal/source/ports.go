// Package source reads the published HDB resale dataset from a CSV file, an
// XLSX workbook or a Google Sheet and yields validated records.
package source

import (
	"context"
	"errors"
	"fmt"

	"resaleflats/internal/core"
)

// RowFunc receives each data row with its 1-based row number in the source,
// counting the header as row 1. A row that cannot be turned into a valid
// record arrives with a *RowError and a zero record; the callee decides
// whether to skip it. Returning an error stops the read.
type RowFunc func(row int, rec core.ResaleRecord, err error) error

// Source streams dataset rows in source order.
type Source interface {
	Name() string
	Each(ctx context.Context, fn RowFunc) error
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// RowError ties a parse or validation failure to a source row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
