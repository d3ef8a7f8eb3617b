// /internal/commands/registry.go
package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"server-console/internal/config"
	"server-console/internal/game"
	"server-console/internal/permissions"
	"server-console/internal/storage"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
	"server-console/pkg/jobmgr"
)

// Env is what command handlers work against.
type Env struct {
	Server   *game.Server
	Storage  *storage.Storage
	Jobs     *jobmgr.Manager
	Registry *cmd.Registry
	Perms    *permissions.Table
	Logger   *zap.Logger

	// Tick is the countdown step of restart. Zero means one second.
	Tick time.Duration
}

func (e *Env) tick() time.Duration {
	if e.Tick > 0 {
		return e.Tick
	}
	return time.Second
}

// Command is the declaration of one console command. Commands with Raw set
// receive inv.Tokens; all others receive inv.Args bound against Args.
type Command struct {
	Sort        int
	Name        string
	Aliases     []string
	Description string
	Category    string
	Permission  string

	Args     []args.ArgSpec
	Raw      bool
	RawUsage string
	Async    bool

	// Check validates bound arguments before Handler runs. Failures are
	// reported with the usage line, before any job is started.
	Check   func(env *Env, inv *cmd.Invocation) error
	Handler func(ctx context.Context, env *Env, inv *cmd.Invocation) error
}

var (
	mu       sync.Mutex
	declared = map[string]*Command{}
)

// Register declares a command. Call it from init.
func Register(c *Command) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := declared[c.Name]; dup {
		panic(fmt.Sprintf("commands: %s declared twice", c.Name))
	}
	declared[c.Name] = c
}

// All returns the declared commands ordered by category weight, then Sort.
func All() []*Command {
	mu.Lock()
	list := make([]*Command, 0, len(declared))
	for _, c := range declared {
		list = append(list, c)
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		wi, wj := config.CategoryWeight(list[i].Category), config.CategoryWeight(list[j].Category)
		if wi != wj {
			return wi < wj
		}
		if list[i].Sort != list[j].Sort {
			return list[i].Sort < list[j].Sort
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func lookup(name string) (*Command, bool) {
	mu.Lock()
	defer mu.Unlock()
	c, ok := declared[name]
	return c, ok
}

// Descriptor builds the dispatch descriptor of c bound to env.
func (c *Command) Descriptor(env *Env) (cmd.Descriptor, error) {
	d := cmd.Descriptor{
		Name:        c.Name,
		Aliases:     c.Aliases,
		Description: c.Description,
		Category:    c.Category,
		Permission:  c.Permission,
		Async:       c.Async,
		Run: func(ctx context.Context, inv *cmd.Invocation) error {
			return c.Handler(ctx, env, inv)
		},
	}
	if c.Handler == nil {
		d.Run = nil
	}
	if c.Check != nil {
		d.Check = func(ctx context.Context, inv *cmd.Invocation) error {
			return c.Check(env, inv)
		}
	}

	if c.Raw {
		d.Handler = cmd.HandlerRaw
		d.RawUsage = c.RawUsage
		return d, nil
	}

	schema, err := args.NewSchema(c.Args...)
	if err != nil {
		return cmd.Descriptor{}, fmt.Errorf("command %s: %w", c.Name, err)
	}
	d.Handler = cmd.HandlerBound
	d.Schema = schema
	return d, nil
}

// Install defines every declared command against env and registers it in
// env.Registry.
func Install(env *Env) error {
	if env.Registry == nil {
		env.Registry = cmd.NewRegistry()
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	for _, c := range All() {
		d, err := c.Descriptor(env)
		if err != nil {
			return err
		}
		command, err := cmd.Define(d)
		if err != nil {
			return err
		}
		if err := env.Registry.Register(command); err != nil {
			return err
		}
	}
	return nil
}
