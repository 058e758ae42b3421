package probe

import (
	"fmt"
	"net/url"
	"runtime"
	"time"
)

// Defaults used by cmd/probe.
const (
	DefaultBaseURL  = "http://localhost:8080"
	DefaultRequests = 100
	DefaultTimeout  = 5 * time.Second
)

// workerMultiplier scales runtime.NumCPU for the default worker count.
const workerMultiplier = 2

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the gateway
	Requests int           // Total requests spread across the cases
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // Per-request timeout
	Verbose  bool          // Log every failed check as it happens
}

// DefaultWorkers returns the default worker count for this machine.
func DefaultWorkers() int {
	return runtime.NumCPU() * workerMultiplier
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid base url %q", ErrProbe, c.BaseURL)
	}
	if c.Requests <= 0 {
		return fmt.Errorf("%w: requests must be positive, got %d", ErrProbe, c.Requests)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrProbe, c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrProbe, c.Timeout)
	}
	return nil
}
