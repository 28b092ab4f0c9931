package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubQueueChecker struct{ err error }

func (s stubQueueChecker) HealthCheck(context.Context) error { return s.err }

func TestHealthCheckBasicMode(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("expected healthy, got %s", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("basic mode must not include checks, got %v", response.Checks)
	}
}

func TestHealthCheckExtendedMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		redisErr   error
		queueErr   error
		wantStatus int
		wantHealth string
	}{
		{
			name:       "all healthy",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "redis down",
			redisErr:   errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
		{
			name:       "queue down",
			queueErr:   errors.New("channel closed"),
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker(nil, stubPinger{err: tt.redisErr}, stubQueueChecker{err: tt.queueErr})

			req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
			rec := httptest.NewRecorder()

			h.HealthCheck(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantHealth {
				t.Errorf("expected %s, got %s", tt.wantHealth, response.Status)
			}
			if _, ok := response.Checks["redis"]; !ok {
				t.Error("expected redis check in extended mode")
			}
			if _, ok := response.Checks["queue"]; !ok {
				t.Error("expected queue check in extended mode")
			}
		})
	}
}
