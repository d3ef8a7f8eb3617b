package cmd

import "context"

// Unwrappable is a command layered over another one. Describe and the
// middlewares in internal/middleware follow Unwrap down to the Define'd
// command to read its permission, category and schema.
type Unwrappable interface {
	Command
	Unwrap() Command
}

// Wrapped layers a RunFunc over Inner. Name and Description stay those of
// Inner, so help, history records and job names show the real command.
type Wrapped struct {
	Inner   Command
	RunFunc func(ctx context.Context, inv *Invocation) error
}

func (w *Wrapped) Name() string        { return w.Inner.Name() }
func (w *Wrapped) Description() string { return w.Inner.Description() }
func (w *Wrapped) Unwrap() Command     { return w.Inner }

// Run calls RunFunc, or Inner.Run when RunFunc is nil. A RunFunc decides
// whether Inner runs at all: permission and category checks return early.
func (w *Wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.RunFunc == nil {
		return w.Inner.Run(ctx, inv)
	}
	return w.RunFunc(ctx, inv)
}

// Wrap is the building block of a Middleware:
//
//	func(c Command) Command {
//		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
//			// before
//			err := c.Run(ctx, inv)
//			// after; inv.Job() is set when c was handed to a job
//			return err
//		})
//	}
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &Wrapped{Inner: c, RunFunc: run}
}

// Root follows Unwrap until it reaches a command that wraps nothing.
func Root(c Command) Command {
	for u, ok := c.(Unwrappable); ok; u, ok = c.(Unwrappable) {
		c = u.Unwrap()
	}
	return c
}
