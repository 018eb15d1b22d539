package source

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resaleflats/internal/core"
)

func sampleRecords() []core.ResaleRecord {
	return []core.ResaleRecord{
		{
			Month: "2017-01", Town: "ANG MO KIO", FlatType: "3 ROOM", Block: "108",
			StreetName: "ANG MO KIO AVE 4", StoreyRange: "01 TO 03",
			FloorAreaSqm: decimal.NewFromInt(67), FlatModel: "New Generation",
			LeaseCommenceYear: 1978, RemainingLease: "60 years 07 months",
			ResalePrice: decimal.NewFromInt(250000),
		},
		{
			Month: "2017-02", Town: "BEDOK", FlatType: "4 ROOM", Block: "12",
			StreetName: "NEW UPP CHANGI RD", StoreyRange: "04 TO 06",
			FloorAreaSqm: decimal.RequireFromString("92.5"), FlatModel: "Model A",
			LeaseCommenceYear: 1985, ResalePrice: decimal.NewFromInt(410000),
		},
	}
}

// writeXLSX writes records to a new workbook at path with the published
// column layout, one sheet named sheet.
func writeXLSX(path, sheet string, records []core.ResaleRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	head := []any{
		colMonth, colTown, colFlatType, colBlock, colStreetName, colStoreyRange,
		colFloorAreaSqm, colFlatModel, colLeaseCommence, colRemainingLease, colResalePrice,
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Month.String(), r.Town, r.FlatType, r.Block, r.StreetName, r.StoreyRange,
			r.FloorAreaSqm.String(), r.FlatModel, r.LeaseCommenceYear, r.RemainingLease, r.ResalePrice.String(),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resale.xlsx")
	want := sampleRecords()
	require.NoError(t, writeXLSX(path, "Resale", want))

	var got collected
	src := NewXLSXFile(path, "Resale")
	require.NoError(t, src.Each(context.Background(), got.fn))
	require.Empty(t, got.errs)

	assert.Equal(t, []int{2, 3}, got.rows)
	require.Len(t, got.records, 2)
	for i := range want {
		assert.Equal(t, want[i].Month, got.records[i].Month)
		assert.Equal(t, want[i].Town, got.records[i].Town)
		assert.Equal(t, want[i].Block, got.records[i].Block)
		assert.Equal(t, want[i].LeaseCommenceYear, got.records[i].LeaseCommenceYear)
		assert.True(t, want[i].ResalePrice.Equal(got.records[i].ResalePrice))
		assert.True(t, want[i].FloorAreaSqm.Equal(got.records[i].FloorAreaSqm))
	}
}

func TestXLSXDefaultsToFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resale.xlsx")
	require.NoError(t, writeXLSX(path, "", sampleRecords()))

	var got collected
	require.NoError(t, NewXLSXFile(path, "").Each(context.Background(), got.fn))
	assert.Len(t, got.records, 2)
}

func TestXLSXUnknownSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resale.xlsx")
	require.NoError(t, writeXLSX(path, "Resale", sampleRecords()))

	err := NewXLSXFile(path, "Nope").Each(context.Background(), (&collected{}).fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no sheet "Nope"`)
}

func TestXLSXInvalidRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resale.xlsx")
	records := sampleRecords()
	records[1].Town = ""
	require.NoError(t, writeXLSX(path, "Resale", records))

	var got collected
	require.NoError(t, NewXLSXFile(path, "Resale").Each(context.Background(), got.fn))
	assert.Len(t, got.records, 1)
	require.Len(t, got.errs, 1)

	var rowErr *RowError
	require.ErrorAs(t, got.errs[0], &rowErr)
	assert.Equal(t, 3, rowErr.Row)
	assert.ErrorIs(t, rowErr, core.ErrEmptyTown)
}

func TestXLSXMissingFile(t *testing.T) {
	err := NewXLSXFile(filepath.Join(t.TempDir(), "missing.xlsx"), "").Each(context.Background(), (&collected{}).fn)
	assert.Error(t, err)
}
