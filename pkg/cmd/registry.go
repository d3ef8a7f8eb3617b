package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrDuplicateCommand = errors.New("command name already registered")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Registry stores commands by name and alias, matched case-insensitively.
// It does not perform dispatch; see Dispatcher.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command // primary name
	index    map[string]Command // names and aliases
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		index:    make(map[string]Command),
	}
}

// Register adds a command under its name and its descriptor's aliases. A name
// or alias already taken by another command is an error and nothing is added.
func (r *Registry) Register(c Command) error {
	keys := []string{c.Name()}
	if d := Describe(c); d != nil {
		keys = append(keys, d.Aliases...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		key := strings.ToLower(k)
		if _, taken := r.index[key]; taken || seen[key] {
			return fmt.Errorf("%w: %q (registering %s)", ErrDuplicateCommand, k, c.Name())
		}
		seen[key] = true
	}

	r.commands[strings.ToLower(c.Name())] = c
	for key := range seen {
		r.index[key] = c
	}
	return nil
}

// MustRegister is like Register but panics.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Get returns the command with the given name or alias, or nil.
func (r *Registry) Get(name string) Command {
	c, _ := r.Lookup(name)
	return c
}

func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.index[strings.ToLower(name)]
	return c, ok
}

// GetAll returns all registered commands, sorted by name. Aliases are not
// listed separately.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
