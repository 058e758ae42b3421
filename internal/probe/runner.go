package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
)

const (
	// Worker channel capacity relative to the worker count.
	workerChannelMultiplier = 2

	// maxRecordedFailures bounds Report.Failures on large runs.
	maxRecordedFailures = 50

	percentageMultiplier = 100
)

var errBodyDrift = errors.New("body differs from first response")

// Failure describes one failed check.
type Failure struct {
	Case   string
	Reason string
}

// Report summarizes a probe run.
type Report struct {
	Requests int
	Passed   int
	Failed   int
	PerCase  map[string]int // requests sent per case
	FailedBy map[string]int // failed checks per case
	Failures []Failure      // first failures, capped
	Duration time.Duration
}

// Run checks gateway health, then sends cfg.Requests requests round-robin
// across the default cases using cfg.Workers workers. Every body for a case
// must be byte-identical to the first one received.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	cases, err := DefaultCases()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	return RunCases(ctx, cfg, cases)
}

// RunCases is Run with an explicit case list.
func RunCases(ctx context.Context, cfg *Config, cases []Case) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no cases", ErrProbe)
	}
	log := logger.Named("probe")
	log.Info(ctx, "starting contract probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	start := time.Now()
	rep := &Report{
		PerCase:  make(map[string]int, len(cases)),
		FailedBy: make(map[string]int, len(cases)),
	}
	var (
		mu    sync.Mutex
		first = make(map[string][]byte, len(cases))
	)
	record := func(c Case, r *response, err error) {
		mu.Lock()
		defer mu.Unlock()

		rep.Requests++
		rep.PerCase[c.Name]++
		if err == nil {
			err = c.check(r)
		}
		if err == nil {
			if prev, ok := first[c.Name]; ok && !bytes.Equal(prev, r.body) {
				err = errBodyDrift
			} else if !ok {
				first[c.Name] = r.body
			}
		}
		if err == nil {
			rep.Passed++
			return
		}
		rep.Failed++
		rep.FailedBy[c.Name]++
		if len(rep.Failures) < maxRecordedFailures {
			rep.Failures = append(rep.Failures, Failure{Case: c.Name, Reason: err.Error()})
		}
		if cfg.Verbose {
			log.Warn(ctx, "check failed", logger.String("case", c.Name), logger.Error(err))
		}
	}

	jobs := make(chan Case, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				r, err := client.do(ctx, c.Method, c.Target)
				record(c, r, err)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Requests; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- cases[i%len(cases)]:
			}
		}
	}()
	wg.Wait()
	rep.Duration = time.Since(start)

	logReport(ctx, log, rep)

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	if rep.Failed > 0 {
		return rep, fmt.Errorf("%w: %d of %d checks failed", ErrContractViolation, rep.Failed, rep.Requests)
	}
	return rep, nil
}

// checkServiceHealth verifies the gateway answers before the run starts.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	r, err := client.do(ctx, http.MethodGet, "/health")
	if err != nil {
		return fmt.Errorf("%w: failed to connect to gateway: %w", ErrProbe, err)
	}
	if r.status != http.StatusOK {
		return fmt.Errorf("%w: health check returned status %d", ErrProbe, r.status)
	}
	return nil
}

// logReport prints the final statistics.
func logReport(ctx context.Context, log logger.Logger, rep *Report) {
	var passRate, requestsPerSecond float64
	if rep.Requests > 0 {
		passRate = float64(rep.Passed) / float64(rep.Requests) * percentageMultiplier
	}
	if rep.Duration > 0 {
		requestsPerSecond = float64(rep.Requests) / rep.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("requests", rep.Requests),
		logger.Int("passed", rep.Passed),
		logger.Int("failed", rep.Failed),
		logger.Duration("duration", rep.Duration),
		logger.Float64("passRate", passRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
	for _, f := range rep.Failures {
		log.Error(ctx, "contract check failed", logger.String("case", f.Case), logger.String("reason", f.Reason))
	}
}
