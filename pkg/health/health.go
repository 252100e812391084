// Package health provides the preflight probe run before an export or
// report starts: one dial check per required backend service, executed
// concurrently and aggregated into a single verdict.
package health

import (
	"context"
	"net"
	"sync"
	"time"

	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
)

// Status represents the probed state of a service or the set overall.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Check probes a single dependency and returns its status.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth holds the result of a single service check.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the aggregated result of all checks.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Err returns ErrServiceUnavailable naming the services that are down, or
// nil when everything is up.
func (r Report) Err() error {
	if r.Status == StatusUp {
		return nil
	}
	var down []string
	for name, comp := range r.Components {
		if comp.Status == StatusDown {
			down = append(down, name)
		}
	}
	return apperrors.Newf(apperrors.ErrServiceUnavailable, "services down: %v", down)
}

// EndpointCheck returns a Check that dials a TCP endpoint.
func EndpointCheck(addr string, timeout time.Duration) Check {
	return func(ctx context.Context) ComponentHealth {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		conn.Close()
		return ComponentHealth{Status: StatusUp}
	}
}

// Checker manages registered checks and runs them concurrently.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all registered checks concurrently and returns an
// aggregated Report. The overall status is down when any service is down.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, check := range checks {
		wg.Add(1)
		go func(n string, ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[n] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	for _, comp := range report.Components {
		if comp.Status == StatusDown {
			report.Status = StatusDown
			break
		}
	}
	return report
}
