// Package jobs runs analyses in the background and tracks them by a
// correlation id.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"schema-atlas/internal/relate"
	"schema-atlas/internal/schema"
)

var (
	// ErrUnknownJob is returned for an id the runner never issued.
	ErrUnknownJob = errors.New("unknown job")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("runner is closed")
)

// State is the lifecycle state of a job.
type State int

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the job has finished.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Analyzer runs one analysis. *relate.Builder satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, inputs []schema.Input) (*relate.Report, error)
}

// Saver persists a finished report. *store.Store satisfies it.
type Saver interface {
	SaveReport(ctx context.Context, report *relate.Report) error
}

// Options configures a Runner.
type Options struct {
	// Timeout bounds each run. Zero means no timeout.
	Timeout time.Duration
	// MaxConcurrent bounds the number of runs in flight. Zero means one.
	MaxConcurrent int
	// Saver, when set, receives every report that completed or was truncated.
	Saver  Saver
	Logger *slog.Logger
}

// Status is a snapshot of one job.
type Status struct {
	ID          string         `yaml:"id" json:"id"`
	State       State          `yaml:"state" json:"state"`
	SubmittedAt time.Time      `yaml:"submitted_at" json:"submitted_at"`
	StartedAt   time.Time      `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt  time.Time      `yaml:"finished_at,omitempty" json:"finished_at,omitempty"`
	Inputs      int            `yaml:"inputs" json:"inputs"`
	Error       string         `yaml:"error,omitempty" json:"error,omitempty"`
	Report      *relate.Report `yaml:"report,omitempty" json:"report,omitempty"`
}

type job struct {
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner executes analyses asynchronously.
type Runner struct {
	analyzer Analyzer
	opts     Options
	sem      *semaphore.Weighted
	log      *slog.Logger

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	jobs   map[string]*job
	closed bool
}

// NewRunner creates a runner around analyzer.
func NewRunner(analyzer Analyzer, opts Options) *Runner {
	limit := opts.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	base, stop := context.WithCancel(context.Background())

	return &Runner{
		analyzer: analyzer,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(limit)),
		log:      logger,
		base:     base,
		stop:     stop,
		jobs:     make(map[string]*job),
	}
}

// Submit queues an analysis of inputs and returns its correlation id.
func (r *Runner) Submit(inputs []schema.Input) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrClosed
	}

	ctx, cancel := context.WithCancel(r.base)

	j := &job{
		status: Status{
			ID:          uuid.NewString(),
			State:       StatePending,
			SubmittedAt: time.Now(),
			Inputs:      len(inputs),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.jobs[j.status.ID] = j
	r.wg.Add(1)

	go r.run(ctx, j, inputs)

	r.log.Debug("job submitted", slog.String("job_id", j.status.ID), slog.Int("inputs", len(inputs)))

	return j.status.ID, nil
}

func (r *Runner) run(ctx context.Context, j *job, inputs []schema.Input) {
	defer r.wg.Done()
	defer close(j.done)
	defer j.cancel()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finish(j, StateCancelled, nil, fmt.Errorf("cancelled before start: %w", err))
		return
	}
	defer r.sem.Release(1)

	r.mu.Lock()
	j.status.State = StateRunning
	j.status.StartedAt = time.Now()
	r.mu.Unlock()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	report, err := r.analyzer.Analyze(ctx, inputs)

	state := StateDone

	switch {
	case errors.Is(err, relate.ErrCancelled):
		state = StateCancelled
	case err != nil:
		state = StateFailed
	}

	if report != nil && r.opts.Saver != nil && state != StateFailed {
		// The run context may be done already; a truncated report is still saved.
		saveCtx := context.WithoutCancel(ctx)
		if serr := r.opts.Saver.SaveReport(saveCtx, report); serr != nil {
			state = StateFailed
			err = errors.Join(err, fmt.Errorf("failed to save report: %w", serr))
		}
	}

	r.finish(j, state, report, err)
}

func (r *Runner) finish(j *job, state State, report *relate.Report, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j.status.State = state
	j.status.FinishedAt = time.Now()
	j.status.Report = report

	if err != nil {
		j.status.Error = err.Error()
	}

	attrs := []any{slog.String("job_id", j.status.ID), slog.String("state", state.String())}
	if report != nil {
		attrs = append(attrs, slog.String("run_id", report.RunID), slog.Int("relationships", len(report.Results)))
	}

	if state == StateDone {
		r.log.Info("job finished", attrs...)
		return
	}

	r.log.Warn("job finished", append(attrs, slog.String("reason", j.status.Error))...)
}

// Status returns a snapshot of the job.
func (r *Runner) Status(id string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	return j.status, nil
}

// List returns snapshots of every job ordered by submission time.
func (r *Runner) List() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Status, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.status)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// Cancel stops a pending or running job. Cancelling a finished job is a no-op.
func (r *Runner) Cancel(id string) error {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	j.cancel()

	return nil
}

// Wait blocks until the job finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Status, error) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()

	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	select {
	case <-j.done:
		return r.Status(id)
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Close cancels every unfinished job and waits for them to stop.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stop()
	r.wg.Wait()
}
