package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestRun_AllPass(t *testing.T) {
	hc := NewChecker("1.0.0")
	hc.AddCriticalCheck("drafts", PingCheck(pinger{}), time.Second)
	hc.AddCheck("sessions", SessionsCheck(func() int { return 3 }, 100), time.Second)

	report := hc.Run(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(report.Checks))
	}
	for name, res := range report.Checks {
		if res.Status != StatusHealthy || res.Error != "" {
			t.Errorf("Check %s should be healthy, got %+v", name, res)
		}
	}
	if report.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", report.Version)
	}
}

func TestRun_NonCriticalDegrades(t *testing.T) {
	hc := NewChecker("")
	hc.AddCriticalCheck("drafts", PingCheck(pinger{}), time.Second)
	hc.AddCheck("sessions", SessionsCheck(func() int { return 10 }, 10), time.Second)

	report := hc.Run(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", report.Status)
	}
	res := report.Checks["sessions"]
	if res.Error != "live sessions at capacity" {
		t.Errorf("Unexpected error %q", res.Error)
	}
	if res.Details["max"] != 10 {
		t.Errorf("Expected details to carry max, got %v", res.Details)
	}
}

func TestRun_CriticalFails(t *testing.T) {
	hc := NewChecker("")
	hc.AddCriticalCheck("drafts", PingCheck(pinger{err: errors.New("connection refused")}), time.Second)

	report := hc.Run(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", report.Status)
	}
	if report.Checks["drafts"].Error != "ping: connection refused" {
		t.Errorf("Unexpected error %q", report.Checks["drafts"].Error)
	}
}

func TestRun_Timeout(t *testing.T) {
	hc := NewChecker("")
	hc.AddCriticalCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	}, 20*time.Millisecond)

	start := time.Now()
	report := hc.Run(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", report.Status)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Run should not wait for a check past its timeout")
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker("").LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("Expected alive, got %v", body["status"])
	}
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want Status
	}{
		{"healthy", nil, http.StatusOK, StatusHealthy},
		{"store down", errors.New("closed"), http.StatusServiceUnavailable, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewChecker("test")
			hc.AddCriticalCheck("drafts", PingCheck(pinger{err: tt.err}), time.Second)

			rec := httptest.NewRecorder()
			hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %s", ct)
			}
			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if report.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, report.Status)
			}
		})
	}
}
