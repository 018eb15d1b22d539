package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"resaleflats/internal/log"
	"resaleflats/internal/reports"
)

type chartBuilder func(ctx context.Context) (reports.Chart, error)

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// render executes a template into a buffer and writes it only on success, so
// a failing template never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data page) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", log.FieldTemplate, name, log.FieldError, err)
		internalError(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// fail logs a failed report and answers with a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, report, op string, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogReportFailed(r.Context(), report, s.reports.Since().String(), op, err)
	internalError(w)
}

func internalError(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
