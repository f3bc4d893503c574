// Package health reports whether the portal can serve applicants: the
// draft store is reachable and live sessions are below capacity.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds checks registered without a timeout.
const DefaultTimeout = 5 * time.Second

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status     Status         `json:"status"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Report is the overall health of the service.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// Check defines a single health check.
type Check struct {
	Name    string
	Fn      CheckFunc
	Timeout time.Duration
	// Critical failures make the service unhealthy; others degrade it.
	Critical bool
}

// Checker runs the registered checks concurrently.
type Checker struct {
	checks  []Check
	version string
	mu      sync.RWMutex
}

// NewChecker creates a checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// AddCheck adds a non-critical check.
func (hc *Checker) AddCheck(name string, fn CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Fn: fn, Timeout: timeout})
}

// AddCriticalCheck adds a check whose failure makes the service
// unhealthy.
func (hc *Checker) AddCriticalCheck(name string, fn CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Fn: fn, Timeout: timeout, Critical: true})
}

func (hc *Checker) add(c Check) {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Run executes every check and aggregates the outcome.
func (hc *Checker) Run(ctx context.Context) Report {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   hc.version,
	}

	type outcome struct {
		check  Check
		result CheckResult
	}
	results := make(chan outcome, len(checks))

	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			results <- outcome{check: c, result: run(ctx, c)}
		}(c)
	}
	wg.Wait()
	close(results)

	for o := range results {
		report.Checks[o.check.Name] = o.result
		if o.result.Status == StatusHealthy {
			continue
		}
		if o.check.Critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

func run(ctx context.Context, c Check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- c.Fn(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("check timed out after %s", c.Timeout)
	}

	res := CheckResult{Status: StatusHealthy, DurationMS: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Error = err.Error()
		if he, ok := err.(*Error); ok {
			res.Details = he.Details
		}
	}
	return res
}

// LivenessHandler answers 200 while the process is running.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	})
}

// Handler runs the checks and answers 503 when the service is
// unhealthy, 200 otherwise, with the full report as body.
func (hc *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Error is a check failure with details for the report.
type Error struct {
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Pinger is anything that can report reachability, such as the draft
// store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes p.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return nil
	}
}

// SessionsCheck fails once the live session count reaches max.
func SessionsCheck(count func() int, max int) CheckFunc {
	return func(ctx context.Context) error {
		n := count()
		if max > 0 && n >= max {
			return &Error{
				Message: "live sessions at capacity",
				Details: map[string]any{"current": n, "max": max},
			}
		}
		return nil
	}
}
