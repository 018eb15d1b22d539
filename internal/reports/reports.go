// Package reports turns store result sets into the view models the pages
// render: listing rows for the table pages and Chart.js line charts for the
// aggregation pages. Every method issues exactly one store query.
package reports

import (
	"context"
	"fmt"
	"math/rand/v2"

	"resaleflats/internal/core"
	"resaleflats/internal/log"
	"resaleflats/internal/series"
)

const (
	comparisonTension = 0.4
	volumeTension     = 0.1

	volumeLabel  = "Total Transactions"
	volumeColour = "rgba(75, 192, 192, 1)"
)

// Dataset is one Chart.js line. Field names follow the Chart.js dataset
// options so the struct can be handed to the chart as JSON unchanged.
type Dataset struct {
	Label       string        `json:"label"`
	Data        []series.Cell `json:"data"`
	BorderColor string        `json:"borderColor"`
	Fill        bool          `json:"fill"`
	Tension     float64       `json:"tension"`
}

// Chart is the view model of a chart page.
type Chart struct {
	Title    string
	CanvasID string
	YTitle   string
	// Currency formats the y axis ticks as SGD amounts.
	Currency bool
	Labels   []core.Month
	Datasets []Dataset
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	return len(c.Labels) == 0
}

// Service assembles report views from a Store.
type Service struct {
	store  Store
	since  core.Month
	colour func() string
	logger *log.Logger
}

// NewService returns a Service reading from store. Aggregation reports are
// limited to months from since onwards.
func NewService(store Store, since core.Month, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Service{
		store:  store,
		since:  since,
		colour: RandomColour,
		logger: logger.WithComponent(log.ComponentReports),
	}
}

// Since returns the lower month bound applied to aggregation reports.
func (s *Service) Since() core.Month {
	return s.since
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Towns returns the towns listing.
func (s *Service) Towns(ctx context.Context) ([]core.Town, error) {
	towns, err := s.store.ListTowns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list towns: %w", err)
	}
	s.logger.DebugContext(ctx, "Towns listed", log.FieldOperation, log.OpList, log.FieldRows, len(towns))
	return towns, nil
}

// FlatTypes returns the flat types listing.
func (s *Service) FlatTypes(ctx context.Context) ([]core.FlatType, error) {
	flats, err := s.store.ListFlatTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list flat types: %w", err)
	}
	s.logger.DebugContext(ctx, "Flat types listed", log.FieldOperation, log.OpList, log.FieldRows, len(flats))
	return flats, nil
}

// TownComparison charts the monthly average price of every town.
func (s *Service) TownComparison(ctx context.Context) (Chart, error) {
	rows, err := s.store.AveragePriceByTown(ctx, s.since)
	if err != nil {
		return Chart{}, fmt.Errorf("town comparison: %w", err)
	}
	s.logger.DebugContext(ctx, "Town averages loaded", log.FieldReport, ReportTownComparison, log.FieldRows, len(rows))
	return Chart{
		Title:    "Comparison of Average Prices Between Towns",
		CanvasID: "townComparisonChart",
		YTitle:   "Average Price (SGD)",
		Currency: true,
	}.withTable(series.Pivot(rows), s.colour, comparisonTension), nil
}

// FlatTypeComparison charts the monthly average price of every flat type.
func (s *Service) FlatTypeComparison(ctx context.Context) (Chart, error) {
	rows, err := s.store.AveragePriceByFlatType(ctx, s.since)
	if err != nil {
		return Chart{}, fmt.Errorf("flat type comparison: %w", err)
	}
	s.logger.DebugContext(ctx, "Flat type averages loaded", log.FieldReport, ReportFlatTypeComparison, log.FieldRows, len(rows))
	return Chart{
		Title:    "Comparison of Average Prices by Flat Types",
		CanvasID: "flatComparisonChart",
		YTitle:   "Average Price (SGD)",
		Currency: true,
	}.withTable(series.Pivot(rows), s.colour, comparisonTension), nil
}

// TransactionVolume charts the number of transactions per month.
func (s *Service) TransactionVolume(ctx context.Context) (Chart, error) {
	rows, err := s.store.TransactionVolume(ctx, s.since)
	if err != nil {
		return Chart{}, fmt.Errorf("transaction volume: %w", err)
	}
	s.logger.DebugContext(ctx, "Transaction volume loaded", log.FieldReport, ReportTransactionVolume, log.FieldRows, len(rows))
	fixed := func() string { return volumeColour }
	c := Chart{
		Title:    "Resale Transactions from " + s.since.Label() + " Onwards",
		CanvasID: "transactionsChart",
		YTitle:   volumeLabel,
	}.withTable(series.FromCounts(volumeLabel, rows), fixed, volumeTension)
	// The volume line is drawn even when there are no months yet.
	if len(c.Datasets) == 0 {
		c.Datasets = append(c.Datasets, Dataset{
			Label:       volumeLabel,
			Data:        []series.Cell{},
			BorderColor: volumeColour,
			Tension:     volumeTension,
		})
	}
	return c, nil
}

func (c Chart) withTable(t series.Table, colour func() string, tension float64) Chart {
	c.Labels = t.Months
	c.Datasets = make([]Dataset, 0, len(t.Groups))
	for _, g := range t.Groups {
		c.Datasets = append(c.Datasets, Dataset{
			Label:       g,
			Data:        t.Series[g],
			BorderColor: colour(),
			Fill:        false,
			Tension:     tension,
		})
	}
	return c
}

// RandomColour returns an opaque rgba colour with random channels.
func RandomColour() string {
	return fmt.Sprintf("rgba(%d, %d, %d, 1)", rand.IntN(255), rand.IntN(255), rand.IntN(255))
}

// Report names, used in logs.
const (
	ReportTowns              = "towns"
	ReportFlatTypes          = "flat_types"
	ReportTownComparison     = "town_comparison"
	ReportFlatTypeComparison = "flat_type_comparison"
	ReportTransactionVolume  = "transaction_volume"
)
