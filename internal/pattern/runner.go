package pattern

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/internal/service/metrics"
	"MarketCal/pkg/logger"
)

// ErrSuperseded reports that a newer detection request replaced this
// one before it ran.
var ErrSuperseded = errors.New("pattern run superseded by a newer request")

// Result is the outcome of one detection run.
type Result struct {
	Patterns []models.Pattern `json:"patterns"`
	Elapsed  time.Duration    `json:"elapsedMs"`
}

type job struct {
	seq       uint64
	series    []models.FinancialMetrics
	timeframe models.Timeframe
	reply     chan jobResult
}

type jobResult struct {
	result Result
	err    error
}

// Runner executes pattern detection either on a background goroutine
// or inline, behind one uniform call. Callers never special-case the
// execution strategy; Background reports which one is active. A new
// request supersedes any queued-but-unstarted one, so the latest
// dataset always wins.
type Runner struct {
	log        *logger.Logger
	background bool
	requests   chan job
	stop       chan struct{}
	latestSeq  atomic.Uint64
}

// NewRunner creates a runner. With background enabled, Start must be
// called before Detect.
func NewRunner(log *logger.Logger, background bool, queueSize int) *Runner {
	r := &Runner{
		log:        log,
		background: background,
	}
	if background {
		if queueSize <= 0 {
			queueSize = 16
		}
		r.requests = make(chan job, queueSize)
		r.stop = make(chan struct{})
	}
	return r
}

// Background reports whether detection runs off the caller's
// goroutine.
func (r *Runner) Background() bool { return r.background }

// Start launches the worker loop. No-op for inline runners.
func (r *Runner) Start() {
	if !r.background {
		return
	}
	go r.loop()
}

// Stop shuts the worker down. Queued jobs are abandoned.
func (r *Runner) Stop() {
	if !r.background {
		return
	}
	close(r.stop)
}

// Detect runs pattern detection over the series and waits for the
// outcome. If a newer request arrives before a queued one starts, the
// older caller receives ErrSuperseded.
func (r *Runner) Detect(ctx context.Context, series []models.FinancialMetrics, tf models.Timeframe) (Result, error) {
	if !r.background {
		res, err := r.run(series, tf)
		r.observe("inline", err)
		return res, err
	}

	j := job{
		seq:       r.latestSeq.Add(1),
		series:    series,
		timeframe: tf,
		reply:     make(chan jobResult, 1),
	}

	select {
	case r.requests <- j:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-r.stop:
		return Result{}, errors.New("pattern runner stopped")
	}

	select {
	case out := <-j.reply:
		r.observe("worker", out.err)
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-r.stop:
		return Result{}, errors.New("pattern runner stopped")
	}
}

func (r *Runner) loop() {
	for {
		select {
		case <-r.stop:
			return
		case j := <-r.requests:
			if j.seq != r.latestSeq.Load() {
				j.reply <- jobResult{err: ErrSuperseded}
				continue
			}
			res, err := r.run(j.series, j.timeframe)
			j.reply <- jobResult{result: res, err: err}
		}
	}
}

func (r *Runner) run(series []models.FinancialMetrics, tf models.Timeframe) (Result, error) {
	start := time.Now()
	patterns, err := Detect(series, tf)
	elapsed := time.Since(start)
	if err != nil {
		r.log.Error("pattern detection failed",
			logger.Error(err),
			logger.Int("series_len", len(series)))
		return Result{}, err
	}
	r.log.Debug("pattern detection finished",
		logger.Int("patterns", len(patterns)),
		logger.Int("series_len", len(series)),
		logger.Duration("elapsed_ms", elapsed))
	return Result{Patterns: patterns, Elapsed: elapsed}, nil
}

func (r *Runner) observe(mode string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrSuperseded):
		outcome = "superseded"
	case err != nil:
		outcome = "error"
	}
	metrics.PatternRuns.WithLabelValues(mode, outcome).Inc()
}
