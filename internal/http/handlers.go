package http

import (
	"net/http"

	"resaleflats/internal/core"
	"resaleflats/internal/log"
	"resaleflats/internal/reports"
)

type navLink struct {
	Path, Label string
}

// nav is the link bar at the foot of every page.
var nav = []navLink{
	{"/", "Go to Home"},
	{"/towns", "Go to Towns"},
	{"/flats", "Go to Available Flats"},
	{"/CPFT", "Comparison of Resale Prices by Flat Types"},
	{"/transactions", "Go to Transactions"},
	{"/comparison-average-prices", "Compare Average Prices by Town"},
}

// page is the data every template receives.
type page struct {
	Title  string
	Path   string
	Since  core.Month
	Nav    []navLink
	Towns  []core.Town
	Flats  []core.FlatType
	Chart  reports.Chart
	Config chartConfig
}

// chartConfig is handed to the chart script as a JSON document.
type chartConfig struct {
	Canvas      string            `json:"canvas"`
	Labels      []core.Month      `json:"labels"`
	Datasets    []reports.Dataset `json:"datasets"`
	YTitle      string            `json:"yTitle"`
	Currency    bool              `json:"currency"`
	BeginAtZero bool              `json:"beginAtZero"`
}

func (s *Server) newPage(r *http.Request, title string) page {
	return page{
		Title: title,
		Path:  r.URL.Path,
		Since: s.reports.Since(),
		Nav:   nav,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready only while the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	ctx, cancel := contextWithTimeout(r, readyTimeout)
	defer cancel()
	if err := s.reports.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", s.newPage(r, "Resale Flat Prices"))
}

func (s *Server) handleTowns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, s.queryTimeout)
	defer cancel()

	towns, err := s.reports.Towns(ctx)
	if err != nil {
		s.fail(w, r, reports.ReportTowns, log.OpQuery, err)
		return
	}
	p := s.newPage(r, "Towns")
	p.Towns = towns
	s.render(w, r, "towns.html", p)
}

func (s *Server) handleFlats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, s.queryTimeout)
	defer cancel()

	flats, err := s.reports.FlatTypes(ctx)
	if err != nil {
		s.fail(w, r, reports.ReportFlatTypes, log.OpQuery, err)
		return
	}
	p := s.newPage(r, "Available Flat Types")
	p.Flats = flats
	s.render(w, r, "flats.html", p)
}

func (s *Server) handleTownComparison(w http.ResponseWriter, r *http.Request) {
	s.chart(w, r, reports.ReportTownComparison, s.reports.TownComparison)
}

func (s *Server) handleFlatTypeComparison(w http.ResponseWriter, r *http.Request) {
	s.chart(w, r, reports.ReportFlatTypeComparison, s.reports.FlatTypeComparison)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.chart(w, r, reports.ReportTransactionVolume, s.reports.TransactionVolume)
}

// chart runs one chart report and renders it with the shared chart template.
func (s *Server) chart(w http.ResponseWriter, r *http.Request, report string, build chartBuilder) {
	ctx, cancel := contextWithTimeout(r, s.queryTimeout)
	defer cancel()

	c, err := build(ctx)
	if err != nil {
		s.fail(w, r, report, log.OpQuery, err)
		return
	}
	p := s.newPage(r, c.Title)
	p.Chart = c
	p.Config = chartConfig{
		Canvas:      c.CanvasID,
		Labels:      c.Labels,
		Datasets:    c.Datasets,
		YTitle:      c.YTitle,
		Currency:    c.Currency,
		BeginAtZero: !c.Currency,
	}
	s.render(w, r, "chart.html", p)
}
