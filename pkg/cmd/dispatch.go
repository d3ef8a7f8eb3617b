package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"server-console/pkg/args"
	"server-console/pkg/jobmgr"
)

// ErrEmptyLine is returned for a line with no words.
var ErrEmptyLine = errors.New("empty command line")

// UsageError is an argument binding failure together with the usage line of
// the command that rejected it.
type UsageError struct {
	Command string
	Usage   string
	Err     error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Message is the text shown to the caller: the failure, then the usage line.
func (e *UsageError) Message() string {
	return fmt.Sprintf("%s\nUsage: %s", e.Err.Error(), strings.TrimSpace(e.Command+" "+e.Usage))
}

// ReplyText turns a dispatch error into the message shown to the caller.
func ReplyText(err error) string {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Message()
	}
	return err.Error()
}

// Dispatcher resolves command lines against a Registry, binds arguments for
// schema-bound commands and runs them, in the foreground or as jobs.
type Dispatcher struct {
	registry    *Registry
	binder      args.Binder
	jobs        *jobmgr.Manager
	jobTimeout  time.Duration
	middlewares []Middleware
	logger      *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithResolver sets the lookup used for reference arguments.
func WithResolver(r args.Resolver) Option {
	return func(d *Dispatcher) { d.binder.Resolver = r }
}

// WithMaxDepth bounds list and composite nesting in arguments.
func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) { d.binder.MaxDepth = n }
}

// WithJobs runs Async commands on jm. Without it they run in the foreground.
func WithJobs(jm *jobmgr.Manager, timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.jobs = jm
		d.jobTimeout = timeout
	}
}

// WithMiddleware adds middlewares around every dispatched command. They run
// before argument binding.
func WithMiddleware(mws ...Middleware) Option {
	return func(d *Dispatcher) { d.middlewares = append(d.middlewares, mws...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: reg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs one command line for caller. Every outcome, including a
// failure, is reported to reply; the returned error is for the adapter's own
// bookkeeping (exit codes, logs). A failing background job is only reported
// to reply; use DispatchJob to observe it.
func (d *Dispatcher) Dispatch(ctx context.Context, caller Caller, line string, reply ReplyFunc) error {
	_, err := d.DispatchJob(ctx, caller, line, reply)
	return err
}

// DispatchJob is Dispatch that also returns the job started by an Async
// command, or nil when the command ran in the foreground.
func (d *Dispatcher) DispatchJob(ctx context.Context, caller Caller, line string, reply ReplyFunc) (*jobmgr.Job, error) {
	tokens := args.Split(line)
	if tokens.Len() == 0 {
		return nil, ErrEmptyLine
	}
	if reply == nil {
		reply = func(string) {}
	}

	name := tokens.At(0)
	c, ok := d.registry.Lookup(name)
	if !ok {
		reply(fmt.Sprintf("Unknown command %q. Type help for a list of commands.", name))
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	inv := &Invocation{
		ID:      uuid.NewString(),
		Caller:  caller,
		Command: name,
		Line:    line,
		Tokens:  tokens[1:],
		reply:   reply,
	}

	log := d.logger.With(
		zap.String("invocation", inv.ID),
		zap.String("command", c.Name()),
		zap.String("caller", caller.ID),
		zap.String("source", caller.Source),
	)

	start := time.Now()
	err := Apply(&stage{inner: c, d: d}, d.middlewares...).Run(ctx, inv)
	if inv.job != nil {
		// The job's final reply waits for this acknowledgement.
		reply(fmt.Sprintf("Started job %s (%s).", jobmgr.ShortID(inv.job.ID), inv.job.Name))
		close(inv.acked)
	}
	if err != nil {
		log.Info("command failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		reply(ReplyText(err))
		return inv.job, err
	}
	log.Debug("command finished", zap.Duration("took", time.Since(start)))
	return inv.job, nil
}

// stage is the innermost command run by Dispatch: it binds arguments and
// hands the command to the job manager when it is Async.
type stage struct {
	inner Command
	d     *Dispatcher
}

func (s *stage) Name() string        { return s.inner.Name() }
func (s *stage) Description() string { return s.inner.Description() }
func (s *stage) Unwrap() Command     { return s.inner }

func (s *stage) Run(ctx context.Context, inv *Invocation) error {
	desc := Describe(s.inner)
	if desc == nil {
		return s.inner.Run(ctx, inv)
	}

	if desc.Handler == HandlerBound {
		vals, err := s.d.binder.Bind(desc.Schema, inv.Tokens)
		if err != nil {
			return &UsageError{Command: desc.Name, Usage: desc.Usage(), Err: err}
		}
		inv.Args = vals
	}

	if desc.Check != nil {
		if err := desc.Check(ctx, inv); err != nil {
			return &UsageError{Command: desc.Name, Usage: desc.Usage(), Err: err}
		}
	}

	if desc.Async && s.d.jobs != nil {
		return s.d.startJob(desc, s.inner, inv)
	}
	return s.inner.Run(ctx, inv)
}

// startJob runs c in the background. Replies made by the job are collected
// and delivered as one message once it finishes, after Dispatch has sent the
// acknowledgement.
func (d *Dispatcher) startJob(desc *Descriptor, c Command, inv *Invocation) error {
	out := inv.reply
	buf := &replyBuffer{}
	job := *inv
	job.reply = buf.add

	short := jobmgr.ShortID(inv.ID)
	acked := make(chan struct{})

	j, err := d.jobs.Start(desc.Name, d.jobTimeout,
		func(ctx context.Context) error {
			return c.Run(ctx, &job)
		},
		func(err error) {
			<-acked
			for _, fn := range inv.finished {
				fn(err)
			}
			msg := buf.String()
			if err != nil {
				d.logger.Info("job failed", zap.String("job", inv.ID), zap.String("command", desc.Name), zap.Error(err))
				msg = joinLines(msg, fmt.Sprintf("Job %s (%s) failed: %s", short, desc.Name, ReplyText(err)))
			}
			if msg == "" {
				msg = fmt.Sprintf("Job %s (%s) finished.", short, desc.Name)
			}
			out(msg)
		},
		jobmgr.WithID(inv.ID),
		jobmgr.WithOwner(inv.Caller.ID),
	)
	if err != nil {
		return err
	}

	inv.job = j
	inv.acked = acked
	return nil
}

type replyBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *replyBuffer) add(msg string) {
	b.mu.Lock()
	b.lines = append(b.lines, msg)
	b.mu.Unlock()
}

func (b *replyBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

func joinLines(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}
