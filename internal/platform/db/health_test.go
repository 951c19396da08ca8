package db

import (
	"errors"
	"net/http"
	"testing"
)

func TestHealthPayload_Healthy(t *testing.T) {
	stats := &PoolStats{TotalConns: 5, IdleConns: 3, MaxConns: 10, Healthy: true}

	status, body := healthPayload(nil, stats)

	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if body["status"] != "healthy" {
		t.Errorf("body status = %v, want healthy", body["status"])
	}
	if _, ok := body["error"]; ok {
		t.Error("healthy payload should not carry an error field")
	}
	got, ok := body["database"].(*PoolStats)
	if !ok {
		t.Fatalf("database field has type %T, want *PoolStats", body["database"])
	}
	if !got.Healthy {
		t.Error("pool should still be marked healthy")
	}
}

func TestHealthPayload_PingFailure(t *testing.T) {
	stats := &PoolStats{TotalConns: 5, Healthy: true}

	status, body := healthPayload(errors.New("connection refused"), stats)

	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", status, http.StatusServiceUnavailable)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("body status = %v, want unhealthy", body["status"])
	}
	if body["error"] != "connection refused" {
		t.Errorf("body error = %v, want connection refused", body["error"])
	}
	if stats.Healthy {
		t.Error("a failed ping must force Healthy to false")
	}
}
