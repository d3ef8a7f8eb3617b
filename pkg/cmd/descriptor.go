package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"server-console/pkg/args"
)

// HandlerKind is the explicit choice between receiving raw tokens and
// receiving schema-bound arguments.
type HandlerKind int

const (
	// HandlerRaw handlers read inv.Tokens themselves; no binding happens.
	HandlerRaw HandlerKind = iota + 1
	// HandlerBound handlers receive inv.Args bound against Schema.
	HandlerBound
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerRaw:
		return "raw"
	case HandlerBound:
		return "bound"
	default:
		return fmt.Sprintf("HandlerKind(%d)", int(k))
	}
}

// HandlerFunc executes a command.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// ErrInvalidDescriptor is wrapped by every Define failure.
var ErrInvalidDescriptor = errors.New("cmd: invalid command descriptor")

// Descriptor is the static registration record of a command.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	// Permission is the level a caller needs, e.g. "moderator". Empty means anyone.
	Permission string

	Handler HandlerKind
	Schema  *args.Schema
	// RawUsage is shown as usage for raw handlers, which have no schema.
	RawUsage string

	// Async commands run as background jobs; their replies are delivered in
	// one message after the job finishes.
	Async bool

	// Check, if set, runs after binding and before Run, in the foreground even
	// for Async commands. Its error is reported with the usage line.
	Check HandlerFunc

	Run HandlerFunc
}

// Define validates d and returns the command it describes.
func Define(d Descriptor) (Command, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.Aliases = append([]string(nil), d.Aliases...)
	return &defined{desc: &d}, nil
}

// MustDefine is like Define but panics. Use it in init-time registration.
func MustDefine(d Descriptor) Command {
	c, err := Define(d)
	if err != nil {
		panic(err)
	}
	return c
}

// Described is implemented by commands built with Define.
type Described interface {
	Descriptor() *Descriptor
}

// Describe returns the descriptor beneath any middleware wrapping c, or nil
// for commands not built with Define.
func Describe(c Command) *Descriptor {
	if d, ok := Root(c).(Described); ok {
		return d.Descriptor()
	}
	return nil
}

type defined struct {
	desc *Descriptor
}

func (c *defined) Name() string            { return c.desc.Name }
func (c *defined) Description() string     { return c.desc.Description }
func (c *defined) Descriptor() *Descriptor { return c.desc }
func (c *defined) Run(ctx context.Context, inv *Invocation) error {
	return c.desc.Run(ctx, inv)
}

// Validate checks the descriptor for authoring mistakes.
func (d *Descriptor) Validate() error {
	fail := func(format string, a ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDescriptor, d.Name, fmt.Sprintf(format, a...))
	}

	if !validName(d.Name) {
		return fail("name must be a single non-empty word")
	}
	for _, a := range d.Aliases {
		if !validName(a) {
			return fail("alias %q must be a single non-empty word", a)
		}
	}
	if d.Run == nil {
		return fail("Run is required")
	}

	switch d.Handler {
	case HandlerRaw:
		if d.Schema != nil {
			return fail("raw handlers do not take an argument schema")
		}
	case HandlerBound:
		if d.Schema == nil {
			return fail("bound handlers need an argument schema")
		}
		if err := d.Schema.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, d.Name, err)
		}
	default:
		return fail("unknown handler kind %v", d.Handler)
	}
	return nil
}

func validName(s string) bool {
	return s != "" && !strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
}

// Usage renders the argument part of the command's usage line.
func (d *Descriptor) Usage() string {
	if d.Handler == HandlerRaw {
		return d.RawUsage
	}
	return d.Schema.Usage()
}

// UsageLine is "name usage", trimmed when the command takes no arguments.
func (d *Descriptor) UsageLine() string {
	return strings.TrimSpace(d.Name + " " + d.Usage())
}
