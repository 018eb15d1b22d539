package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Handler: slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})})
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestComponentIsPerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, slog.LevelInfo)
	assert.Equal(t, ComponentApp, logger.Component())

	logger.WithComponent(ComponentStorage).WithComponent(ComponentReports).Info("hello", "k", 1)
	logger.Debug("dropped")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, ComponentReports, got[0][FieldComponent])
	assert.EqualValues(t, 1, got[0]["k"])
}

func TestWithKeepsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, slog.LevelDebug).WithComponent(ComponentImporter).With(FieldSource, "csv:x")
	logger.DebugContext(context.Background(), "debug on")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, ComponentImporter, got[0][FieldComponent])
	assert.Equal(t, "csv:x", got[0][FieldSource])
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithRequestID("").
		WithError(nil).
		WithReport("towns", "").
		WithImport("csv:a", 2, 1000)

	assert.NotContains(t, f, FieldRequestID)
	assert.NotContains(t, f, FieldError)
	assert.NotContains(t, f, FieldSince)
	assert.Equal(t, "towns", f[FieldReport])
	assert.Equal(t, 2, f[FieldBatch])
	assert.Len(t, f.ToSlice(), len(f)*2)
}

func TestHTTPEndLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, slog.LevelInfo))
	r := httptest.NewRequest(http.MethodGet, "/towns", nil)

	sl.LogHTTPEnd(context.Background(), r, "req_1", http.StatusOK, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, "req_2", http.StatusNotFound, 1, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, "req_3", http.StatusInternalServerError, 9, "1.2.3.4")

	got := lines(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, "INFO", got[0]["level"])
	assert.Equal(t, "WARN", got[1]["level"])
	assert.Equal(t, "ERROR", got[2]["level"])
	assert.Equal(t, ComponentHTTP, got[2][FieldComponent])
	assert.Equal(t, false, got[2][FieldSuccess])
}

func TestReportFailedAndImportBatch(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, slog.LevelInfo))

	sl.LogReportFailed(context.Background(), "comparison-average-prices", "2017-01", OpQuery, errors.New("timeout"))
	sl.LogImportBatch(context.Background(), "csv:resale.csv", 3, 1500)

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, ComponentReports, got[0][FieldComponent])
	assert.Equal(t, "timeout", got[0][FieldError])
	assert.Equal(t, "2017-01", got[0][FieldSince])
	assert.Equal(t, ComponentImporter, got[1][FieldComponent])
	assert.EqualValues(t, 1500, got[1][FieldImported])
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, slog.LevelInfo)

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "req_abc", got[0][FieldRequestID])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, ComponentApp, logger.Component())
}
