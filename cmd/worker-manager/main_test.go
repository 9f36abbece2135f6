package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"procurement-workers/internal/common/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestMux_Ready(t *testing.T) {
	tests := []struct {
		name       string
		redisErr   error
		wantCode   int
		wantStatus string
	}{
		{"all backends up", nil, http.StatusOK, "ready"},
		{"redis down", stderrors.New("connection refused"), http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := database.NewHealth(time.Second)
			health.Register("postgres", stubPinger{})
			health.Register("redis", stubPinger{err: tt.redisErr})

			rec := httptest.NewRecorder()
			newMux(health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "ok", body["checks"].(map[string]interface{})["postgres"])
		})
	}
}

func TestMux_HealthAndMetrics(t *testing.T) {
	mux := newMux(database.NewHealth(time.Second))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "probe")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("down")
	}, 2, time.Millisecond, zap.NewNop(), "probe")
	assert.ErrorContains(t, err, "probe failed after 2 attempts")
	assert.Equal(t, 2, calls)
}
