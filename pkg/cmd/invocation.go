// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How lines reach the
// Dispatcher (local console, Discord messages) is defined by adapters.
package cmd

import (
	"context"
	"fmt"

	"server-console/pkg/args"
	"server-console/pkg/jobmgr"
)

// Caller identifies who issued a command line.
type Caller struct {
	ID     string
	Name   string
	Source string // "console", "discord", ...
}

func (c Caller) String() string {
	if c.Name != "" && c.Name != c.ID {
		return fmt.Sprintf("%s (%s)", c.Name, c.ID)
	}
	return c.ID
}

// ReplyFunc delivers one message back to the caller.
type ReplyFunc func(msg string)

// Invocation carries everything one command run needs. Adapters may set Data
// to their own context (e.g. the *discordgo.MessageCreate event).
type Invocation struct {
	ID      string
	Caller  Caller
	Command string // name as typed, possibly an alias
	Line    string
	Tokens  args.Tokens // words after the command name
	Args    args.Values // bound arguments; nil for raw handlers
	Data    interface{}

	reply ReplyFunc

	job      *jobmgr.Job
	acked    chan struct{}
	finished []func(error)
}

// NewInvocation builds an invocation outside the Dispatcher, mostly for tests.
func NewInvocation(caller Caller, tokens args.Tokens, reply ReplyFunc) *Invocation {
	return &Invocation{Caller: caller, Tokens: tokens, reply: reply}
}

// Reply sends msg to the caller. It is a no-op when no reply func is set.
func (inv *Invocation) Reply(msg string) {
	if inv.reply != nil {
		inv.reply(msg)
	}
}

// Job is the background job the invocation was handed to, or nil when the
// command ran in the foreground.
func (inv *Invocation) Job() *jobmgr.Job { return inv.job }

// OnJobDone registers fn to receive the job's result before its final reply
// is delivered. Hooks must be registered before Dispatch returns; middlewares
// do it after the inner Run returns with Job set.
func (inv *Invocation) OnJobDone(fn func(error)) {
	inv.finished = append(inv.finished, fn)
}

func (inv *Invocation) Replyf(format string, a ...any) {
	inv.Reply(fmt.Sprintf(format, a...))
}

// Command is the universal contract: identity plus execution. Permissions,
// argument schemas and scheduling live in the Descriptor and the Dispatcher.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
