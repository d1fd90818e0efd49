package logger

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-insights-go/internal/aggregator"
)

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"WARN":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"loud":  logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, levelFromEnv(in), in)
	}
}

func TestWithRequest_JSON(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	log.WithRequest(req).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["req_id"])
	assert.Equal(t, "/dashboard", line["path"])
	assert.Equal(t, "survey-insights-go", line["service"])
	assert.Equal(t, "hello", line["msg"])
}

func TestRequestID_Generated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Len(t, RequestID(req), 36)
}

func TestStatsFields(t *testing.T) {
	f := StatsFields(aggregator.Stats{Records: 5, Counted: 3, Skipped: 2})
	assert.Equal(t, 5, f["records"])
	assert.Equal(t, 2, f["skipped"])
}
