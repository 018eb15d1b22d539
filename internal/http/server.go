package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"resaleflats/internal/core"
	"resaleflats/internal/log"
	"resaleflats/internal/middleware/ratelimit"
	"resaleflats/internal/middleware/security"
	"resaleflats/internal/middleware/trace"
	"resaleflats/internal/reports"
	appweb "resaleflats/web"
)

const (
	defaultQueryTimeout = 7 * time.Second
	readyTimeout        = 2 * time.Second
	staticMaxAge        = 3600
)

// Reports is what the pages read. *reports.Service satisfies it.
type Reports interface {
	Since() core.Month
	Ping(ctx context.Context) error
	Towns(ctx context.Context) ([]core.Town, error)
	FlatTypes(ctx context.Context) ([]core.FlatType, error)
	TownComparison(ctx context.Context) (reports.Chart, error)
	FlatTypeComparison(ctx context.Context) (reports.Chart, error)
	TransactionVolume(ctx context.Context) (reports.Chart, error)
}

// Options configures NewServer.
type Options struct {
	Addr string
	// QueryTimeout bounds the single store query each report page issues.
	QueryTimeout   time.Duration
	TrustedProxies []string
	// RateLimit is report pages per client per minute; 0 disables it.
	RateLimit int
	Logger    *log.Logger
}

type Server struct {
	http.Server
	templates    *template.Template
	reports      Reports
	queryTimeout time.Duration
	logger       *log.Logger
}

// NewServer parses the embedded templates and wires routes and middleware,
// returning a ready-to-run server.
func NewServer(opts Options, rep Reports) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		templates:    t,
		reports:      rep,
		queryTimeout: timeout,
		logger:       logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))

	// Report pages hit the store; probes and static assets are not limited.
	report := func(h http.HandlerFunc) http.Handler { return h }
	var limiter *ratelimit.Limiter
	if opts.RateLimit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{Requests: opts.RateLimit, Period: time.Minute})
		limit := limiter.Middleware(logger, detector.ExtractClientIP)
		report = func(h http.HandlerFunc) http.Handler { return limit(h) }
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /towns", report(s.handleTowns))
	mux.Handle("GET /flats", report(s.handleFlats))
	mux.Handle("GET /transactions", report(s.handleTransactions))
	mux.Handle("GET /comparison-average-prices", report(s.handleTownComparison))
	mux.Handle("GET /CPFT", report(s.handleFlatTypeComparison))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Outermost first: logger in context, request id, access log, headers,
	// probe detection.
	var h http.Handler = mux
	h = detector.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	if limiter != nil {
		s.RegisterOnShutdown(limiter.Stop)
	}
	return s, nil
}
