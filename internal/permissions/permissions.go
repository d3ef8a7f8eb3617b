// /internal/permissions/permissions.go
package permissions

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConsole is the caller source of the local terminal.
const SourceConsole = "console"

type Level int

const (
	LevelUser Level = iota
	LevelModerator
	LevelAdmin
	LevelOwner
)

var levelNames = []string{"user", "moderator", "admin", "owner"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

var ErrUnknownLevel = errors.New("unknown permission level")

// ParseLevel maps a level name to a Level. An empty name is LevelUser.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelUser, nil
	}
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return Level(i), nil
		}
	}
	return LevelUser, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	lvl, err := ParseLevel(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = lvl
	return nil
}

func (l Level) MarshalYAML() (interface{}, error) { return l.String(), nil }

// Table assigns permission levels to callers.
//
//	default: user
//	callers:
//	  "123456789012345678": admin
//	  ops-bot: moderator
type Table struct {
	Default Level            `yaml:"default"`
	Callers map[string]Level `yaml:"callers"`
}

// Load reads the table at path. A missing file yields the default table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}
	return &t, nil
}

// LevelOf returns the level of a caller. Callers listed by ID get their
// listed level; the local console is otherwise owner; everyone else gets the
// default.
func (t *Table) LevelOf(callerID, source string) Level {
	if t != nil {
		if l, ok := t.Callers[callerID]; ok {
			return l
		}
	}
	if source == SourceConsole {
		return LevelOwner
	}
	if t == nil {
		return LevelUser
	}
	return t.Default
}

// Allows reports whether a caller may run a command that requires the named
// level. An empty requirement allows everyone.
func (t *Table) Allows(callerID, source, required string) (bool, error) {
	need, err := ParseLevel(required)
	if err != nil {
		return false, err
	}
	return t.LevelOf(callerID, source) >= need, nil
}
