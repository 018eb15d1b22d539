package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"resaleflats/internal/core"
)

// Column names as published on data.gov.sg.
const (
	colMonth          = "month"
	colTown           = "town"
	colFlatType       = "flat_type"
	colBlock          = "block"
	colStreetName     = "street_name"
	colStoreyRange    = "storey_range"
	colFloorAreaSqm   = "floor_area_sqm"
	colFlatModel      = "flat_model"
	colLeaseCommence  = "lease_commence_date"
	colRemainingLease = "remaining_lease"
	colResalePrice    = "resale_price"
)

// remaining_lease only appears in the 2015 onwards files.
var requiredColumns = []string{
	colMonth, colTown, colFlatType, colBlock, colStreetName, colStoreyRange,
	colFloorAreaSqm, colFlatModel, colLeaseCommence, colResalePrice,
}

// header maps a column name to its position.
type header map[string]int

func newHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	for i, c := range cells {
		name := normalizeColumn(c)
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return h, nil
}

func normalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

func (h header) get(cells []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// record converts one data row. Blank rows are reported as skip.
func (h header) record(cells []string) (rec core.ResaleRecord, skip bool, err error) {
	if isBlank(cells) {
		return rec, true, nil
	}

	month, err := core.ParseMonth(h.get(cells, colMonth))
	if err != nil {
		return rec, false, err
	}
	price, err := parseDecimal(h.get(cells, colResalePrice))
	if err != nil {
		return rec, false, fmt.Errorf("%w: %v", core.ErrInvalidPrice, err)
	}
	area, err := parseDecimal(h.get(cells, colFloorAreaSqm))
	if err != nil {
		return rec, false, fmt.Errorf("%w: %v", core.ErrInvalidArea, err)
	}
	var lease int
	if v := h.get(cells, colLeaseCommence); v != "" {
		lease, err = strconv.Atoi(v)
		if err != nil {
			return rec, false, fmt.Errorf("invalid lease commence year %q", v)
		}
	}

	rec = core.ResaleRecord{
		Month:             month,
		Town:              strings.ToUpper(h.get(cells, colTown)),
		FlatType:          strings.ToUpper(h.get(cells, colFlatType)),
		Block:             h.get(cells, colBlock),
		StreetName:        h.get(cells, colStreetName),
		StoreyRange:       h.get(cells, colStoreyRange),
		FloorAreaSqm:      area,
		FlatModel:         h.get(cells, colFlatModel),
		LeaseCommenceYear: lease,
		RemainingLease:    h.get(cells, colRemainingLease),
		ResalePrice:       price,
	}
	if err := rec.Validate(); err != nil {
		return core.ResaleRecord{}, false, err
	}
	return rec, false, nil
}

// parseDecimal accepts plain numbers and spreadsheet renderings with
// thousands separators or a currency prefix.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "SGD")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(strings.TrimSpace(s))
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
