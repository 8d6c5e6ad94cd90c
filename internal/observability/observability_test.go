package observability

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duynguyendang/shaclreport/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaclreport.log")
	logger := NewLogger(config.LogConfig{
		Level:       "debug",
		Format:      "console",
		File:        path,
		MaxSize:     1,
		ServiceName: "test",
	})

	logger.Info("dataset created", zap.String("dataset", "d1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"msg":"dataset created"`)
	assert.Contains(t, line, `"dataset":"d1"`)
	assert.Contains(t, line, `"logger":"test"`)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger := NewLogger(config.LogConfig{Level: "chatty", Format: "json"})
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestInitializeLoggerRoutesSlog(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "slog.log")
	logger := InitializeLogger(config.LogConfig{Level: "info", Format: "json", File: path})
	assert.Same(t, logger, GetLogger())

	slog.Info("report built", "focusNodes", 3)
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "report built"))
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordLoad(11)
	c.RecordLoad(4)
	c.RecordLoadFailure()
	c.RecordQuery(nil)
	c.RecordQuery(errors.New("boom"))
	c.RecordQuery(errors.New("boom"))
	c.RecordReport("html", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.DatasetsLoaded))
	assert.Equal(t, 15.0, testutil.ToFloat64(c.TriplesLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LoadFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Queries.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ReportsBuilt.WithLabelValues("html")))
}

func TestCollectorNilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordLoad(1)
		c.RecordLoadFailure()
		c.RecordQuery(nil)
		c.RecordReport("json", 0)
	})
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RecordLoad(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shaclreport_triples_loaded_total 3")
}
