// Package series pivots flat aggregation rows into chart-ready series: one
// shared month axis and, per group, a dense slice aligned to that axis.
package series

import (
	"encoding/json"

	"resaleflats/internal/core"
)

// Cell is one point of a series. A cell with Valid unset is the missing
// marker: no row existed for that group and month. It encodes as JSON null so
// the chart draws a gap instead of a zero.
type Cell struct {
	Value float64
	Valid bool
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Table is the pivoted form of a result set.
type Table struct {
	// Months holds each distinct month once, in first-seen order.
	Months []core.Month
	// Groups holds each distinct group key once, in first-seen order.
	Groups []string
	// Series maps a group key to len(Months) cells.
	Series map[string][]Cell
}

// Pivot reshapes rows into a Table. Rows are expected to arrive ordered by
// month then group, as the report queries declare; Pivot keeps that order
// and never sorts. When the same (group, month) pair appears twice the later
// row wins.
func Pivot(rows []core.GroupedValue) Table {
	t := Table{
		Months: []core.Month{},
		Groups: []string{},
		Series: make(map[string][]Cell),
	}
	if len(rows) == 0 {
		return t
	}

	monthIdx := make(map[core.Month]int)
	for _, r := range rows {
		if _, ok := monthIdx[r.Month]; !ok {
			monthIdx[r.Month] = len(t.Months)
			t.Months = append(t.Months, r.Month)
		}
	}

	// Series are allocated at full width only once every month is known, so a
	// group first seen late still spans the whole axis.
	for _, r := range rows {
		cells, ok := t.Series[r.Group]
		if !ok {
			cells = make([]Cell, len(t.Months))
			t.Series[r.Group] = cells
			t.Groups = append(t.Groups, r.Group)
		}
		cells[monthIdx[r.Month]] = Cell{Value: r.Value, Valid: true}
	}
	return t
}

// FromCounts turns the single-group volume report into a Table with one
// series under label.
func FromCounts(label string, rows []core.MonthlyCount) Table {
	values := make([]core.GroupedValue, len(rows))
	for i, r := range rows {
		values[i] = core.GroupedValue{Group: label, Month: r.Month, Value: float64(r.Count)}
	}
	return Pivot(values)
}
