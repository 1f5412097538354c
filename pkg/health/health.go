// Package health runs diagnostic checks against the storefront's
// dependencies.
//
// RunOnce executes every registered check concurrently. A failing check is
// retried until it passes or has failed failureThreshold times in a row, so a
// single dropped connection does not mark a backend unhealthy.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Defaults applied by AddCheck.
const (
	DefaultFailureThreshold = 3
	DefaultRetryDelay       = 200 * time.Millisecond
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Option tunes a single check.
type Option func(*checkConfig)

// WithFailureThreshold sets how many consecutive failures mark the check
// unhealthy.
func WithFailureThreshold(n int) Option {
	return func(c *checkConfig) {
		if n > 0 {
			c.failureThreshold = n
		}
	}
}

// WithRetryDelay sets the pause between attempts of a failing check.
func WithRetryDelay(d time.Duration) Option {
	return func(c *checkConfig) {
		c.retryDelay = d
	}
}

// checkConfig holds the configuration and state of a single check.
//
// run is only called from the goroutine settling the check. Report reads the
// state from arbitrary goroutines, so the shared fields are atomic.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	retryDelay       time.Duration

	healthy  atomic.Bool
	lastErr  atomic.Pointer[error]
	attempts atomic.Int32
	elapsed  atomic.Int64

	consecutiveFails int
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and updates the failure counter.
func (c *checkConfig) run(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.check(checkCtx)
	c.elapsed.Store(int64(time.Since(start)))
	c.attempts.Add(1)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return err
	}
	c.consecutiveFails = 0
	c.healthy.Store(true)
	return nil
}

// settle runs the check until it passes or crosses the failure threshold.
func (c *checkConfig) settle(ctx context.Context) {
	c.consecutiveFails = 0
	c.attempts.Store(0)
	c.healthy.Store(true)
	for {
		if err := c.run(ctx); err == nil || !c.isHealthy() {
			return
		}
		select {
		case <-ctx.Done():
			err := ctx.Err()
			c.lastErr.Store(&err)
			c.healthy.Store(false)
			return
		case <-time.After(c.retryDelay):
		}
	}
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Healthy  bool
	Err      error
	Attempts int
	// Duration of the last attempt.
	Duration time.Duration
}

// Health holds a set of named checks.
type Health struct {
	mu     sync.RWMutex
	checks []*checkConfig
}

// New creates an empty Health.
func New() *Health {
	return &Health{}
}

// AddCheck registers a check. Checks are healthy until they have run.
func (h *Health) AddCheck(name string, timeout time.Duration, check CheckFunc, opts ...Option) {
	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: DefaultFailureThreshold,
		retryDelay:       DefaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	c.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// RunOnce settles every check concurrently and reports whether all of them
// ended healthy.
func (h *Health) RunOnce(ctx context.Context) bool {
	h.mu.RLock()
	checks := make([]*checkConfig, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	var g errgroup.Group
	for _, c := range checks {
		g.Go(func() error {
			c.settle(ctx)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range checks {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Report returns the state of every check in registration order.
func (h *Health) Report() []Result {
	h.mu.RLock()
	checks := make([]*checkConfig, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, Result{
			Name:     c.name,
			Healthy:  c.isHealthy(),
			Err:      c.getLastError(),
			Attempts: int(c.attempts.Load()),
			Duration: time.Duration(c.elapsed.Load()),
		})
	}
	return results
}

// Failures maps the name of every unhealthy check to its last error.
func (h *Health) Failures() map[string]string {
	failures := make(map[string]string)
	for _, r := range h.Report() {
		if r.Healthy {
			continue
		}
		if r.Err != nil {
			failures[r.Name] = r.Err.Error()
		} else {
			failures[r.Name] = "check is unhealthy"
		}
	}
	return failures
}
