// Package jobmgr runs named jobs in the background with cancellation, an
// optional timeout, status callbacks and in-memory tracking of running jobs.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    logger.Info("job", zap.String("status", msg))
//	})
//
//	job, err := jm.Start("restart", 5*time.Minute, func(ctx context.Context) error {
//	    // do work until ctx is cancelled
//	    return nil
//	}, func(err error) {
//	    // called exactly once, after the runner has returned
//	})
//
//	// later...
//	_ = jm.Stop(job.ID)
//
// Jobs run in separate goroutines and are removed from the manager when they
// finish. There is no retry logic and no persistence.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRunning = errors.New("job is already running")
	ErrNotRunning     = errors.New("job not running")
	ErrClosed         = errors.New("job manager is closed")
)

// Job represents a running unit of work.
type Job struct {
	ID      string
	Name    string
	Owner   string
	Started time.Time

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the job's runner has returned and its completion
// callback has run.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the runner's error. It is only meaningful after Done is closed.
func (j *Job) Err() error {
	<-j.done
	return j.err
}

// Info is a snapshot of a running job.
type Info struct {
	ID      string
	Name    string
	Owner   string
	Started time.Time
}

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:restart:3f0c...
//	error:restart:3f0c...:context canceled
//	done:restart:3f0c...
type StatusReporter func(string)

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	wg       sync.WaitGroup
	closed   bool
	Reporter StatusReporter
}

// NewManager creates a new Manager.
// The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// Option configures a job at Start.
type Option func(*Job)

// WithOwner records who started the job.
func WithOwner(owner string) Option {
	return func(j *Job) { j.Owner = owner }
}

// WithID replaces the generated job ID.
func WithID(id string) Option {
	return func(j *Job) {
		if id != "" {
			j.ID = id
		}
	}
}

// Start runs runner in a separate goroutine and returns immediately. Only one
// job per name may run at a time. A timeout of zero means no deadline.
//
// onDone, if not nil, is called exactly once with the runner's result after
// the runner has returned and the job has been removed from the manager.
func (m *Manager) Start(name string, timeout time.Duration, runner func(ctx context.Context) error, onDone func(error), opts ...Option) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	for _, j := range m.jobs {
		if j.Name == name {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
		}
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	job := &Job{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(job)
	}
	if _, dup := m.jobs[job.ID]; dup {
		cancel()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, job.ID)
	}
	m.jobs[job.ID] = job

	m.wg.Add(1)
	go m.run(ctx, job, runner, onDone)

	return job, nil
}

func (m *Manager) run(ctx context.Context, job *Job, runner func(ctx context.Context) error, onDone func(error)) {
	defer m.wg.Done()
	defer close(job.done)
	defer job.cancel()

	m.report("running:" + job.Name + ":" + job.ID)

	err := runner(ctx)
	if err == nil && ctx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		err = ctx.Err()
	}
	job.err = err

	if err != nil {
		m.report("error:" + job.Name + ":" + job.ID + ":" + err.Error())
	} else {
		m.report("done:" + job.Name + ":" + job.ID)
	}

	m.mu.Lock()
	delete(m.jobs, job.ID)
	m.mu.Unlock()

	if onDone != nil {
		onDone(err)
	}
}

// Stop cancels a running job by ID, or by name when ref matches no ID.
// The job is removed once its runner returns.
func (m *Manager) Stop(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.lookup(ref)
	if job == nil {
		return fmt.Errorf("%w: %s", ErrNotRunning, ref)
	}
	job.cancel()
	return nil
}

// Get returns the running job with the given ID or name.
func (m *Manager) Get(ref string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.lookup(ref)
	return job, job != nil
}

func (m *Manager) lookup(ref string) *Job {
	if job, ok := m.jobs[ref]; ok {
		return job
	}
	for _, job := range m.jobs {
		if strings.EqualFold(job.Name, ref) || (len(ref) >= 8 && strings.HasPrefix(job.ID, ref)) {
			return job
		}
	}
	return nil
}

// List returns the active jobs, oldest first.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, Info{ID: j.ID, Name: j.Name, Owner: j.Owner, Started: j.Started})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Started.Equal(out[k].Started) {
			return out[i].ID < out[k].ID
		}
		return out[i].Started.Before(out[k].Started)
	})
	return out
}

// Status returns a human-readable summary of active jobs.
// Example:
//
//	"Running jobs: restart (3f0c1a2b), backup (9e2d77aa)"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	names := make([]string, len(active))
	for i, j := range active {
		names[i] = fmt.Sprintf("%s (%s)", j.Name, ShortID(j.ID))
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(names, ", "))
}

// Wait blocks until every started job has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown refuses new jobs, cancels the running ones and waits for them.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.Unlock()
	return m.Wait(ctx)
}

// ShortID is the first eight characters of a job ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
