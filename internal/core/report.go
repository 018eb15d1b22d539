package core

// GroupedValue is one aggregation row: a group (town or flat type), a month
// and the aggregate for that pair.
type GroupedValue struct {
	Group string
	Month Month
	Value float64
}

// MonthlyCount is one row of the transaction volume report.
type MonthlyCount struct {
	Month Month
	Count int64
}
