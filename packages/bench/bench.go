package bench

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

// Executor runs one described request; *relay.Relay satisfies it
type Executor interface {
	Execute(ctx context.Context, desc relay.Description) relay.Result
}

// ProgressFunc is called after each completed call
type ProgressFunc func(done, total int)

// Runner repeats a single request according to its Config
type Runner struct {
	config   *Config
	executor Executor
	limiter  *rate.Limiter
	progress ProgressFunc
}

type Option func(*Runner)

// WithProgress registers a callback invoked after every call
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a runner. It returns an error when config is invalid.
func NewRunner(config *Config, executor Executor, opts ...Option) (*Runner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		config:   config,
		executor: executor,
	}
	if config.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run issues desc Count times and returns the summary. Cancelling ctx
// stops scheduling new calls and aborts the ones in flight, which the
// relay records as FetchError.
func (r *Runner) Run(ctx context.Context, desc relay.Description) *Summary {
	metrics := NewMetrics()
	metrics.Start()

	jobs := make(chan struct{})
	var wg sync.WaitGroup
	var doneMu sync.Mutex
	done := 0

	for i := 0; i < r.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				start := time.Now()
				res := r.executor.Execute(ctx, desc)
				metrics.Record(res, time.Since(start))

				if r.progress != nil {
					doneMu.Lock()
					done++
					r.progress(done, r.config.Count)
					doneMu.Unlock()
				}
			}
		}()
	}

schedule:
	for i := 0; i < r.config.Count; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- struct{}{}:
		}
	}
	close(jobs)
	wg.Wait()

	metrics.Stop()
	return metrics.GetSummary()
}
