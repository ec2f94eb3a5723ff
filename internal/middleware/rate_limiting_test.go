package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/fitledger/backend/internal/telemetry/metrics"
)

type rateLimiterStub struct {
	allowed int
	err     error
}

func (s *rateLimiterStub) Allow(_ context.Context, _ string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &redis_rate.Result{
		Allowed:    s.allowed,
		RetryAfter: 30 * time.Second,
	}, nil
}

func TestRateLimit(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	t.Run("allowed", func(t *testing.T) {
		nextCalled = false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/login", nil)

		RateLimit(&rateLimiterStub{allowed: 1}, "auth", 15, metricsManager)(next).ServeHTTP(rr, req)

		assert.True(t, nextCalled)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("limit reached", func(t *testing.T) {
		nextCalled = false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/login", nil)

		RateLimit(&rateLimiterStub{allowed: 0}, "auth", 15, metricsManager)(next).ServeHTTP(rr, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Contains(t, rr.Body.String(), "retry after")
		assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
	})

	t.Run("limiter error", func(t *testing.T) {
		nextCalled = false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/login", nil)

		RateLimit(&rateLimiterStub{err: errors.New("redis down")}, "auth", 15, metricsManager)(next).ServeHTTP(rr, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
