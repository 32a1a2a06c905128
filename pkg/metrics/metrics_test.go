package metrics

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheck(t *testing.T) {
	m := New()
	m.RecordCheck("execution_request:execute", true)
	m.RecordCheck("execution_request:execute", false)
	m.RecordCheck("execution_request:execute", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("execution_request:execute", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("execution_request:execute", "denied")))
}

func TestRecordEventAndExecution(t *testing.T) {
	m := New()
	m.RecordEvent("REVIEW")
	m.RecordExecution("TIMEOUT")
	m.ObserveExecution("FAILED", 1.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("REVIEW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("TIMEOUT")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ExecutionDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEvent("COMMENT")
		m.RecordCheck("user:get", true)
		m.RecordExecution("EXECUTED")
		m.ObserveExecution("EXECUTED", 0.1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordEvent("EDIT")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `execgate_events_appended_total{type="EDIT"} 1`)
}

func TestRecordPolicyLoad(t *testing.T) {
	m := New()
	m.RecordPolicyLoad(true)
	m.RecordPolicyLoad(false)
	m.RecordPolicyLoad(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PolicyLoadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyLoadsTotal.WithLabelValues("failure")))
}

func TestServer(t *testing.T) {
	m := New()
	m.RecordPolicyLoad(true)

	var log bytes.Buffer
	srv := NewServer(m, "127.0.0.1:0", &log)

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"scrape", http.MethodGet, "/metrics", http.StatusOK},
		{"wrong method", http.MethodPost, "/metrics", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `execgate_policy_loads_total{result="success"} 1`)
	assert.Contains(t, log.String(), `"GET /metrics HTTP/1.1" 200`)
}

func TestServerShutdown(t *testing.T) {
	srv := NewServer(New(), "127.0.0.1:0", io.Discard)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
