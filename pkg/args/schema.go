package args

import (
	"strings"
	"unicode"
)

// ArgSpec declares one argument of a command.
type ArgSpec struct {
	Name string
	Type *Type
	Help string

	Optional bool
	// Rest captures this token and every following one as a single text value.
	Rest bool
	// NamedOnly arguments are skipped by positional binding.
	NamedOnly bool
	// PositionalOnly arguments reject name:value syntax.
	PositionalOnly bool

	// Constructor overrides the composite type's default constructor.
	Constructor *Constructor
	// Default replaces the type's zero value when an optional argument is unbound.
	Default any
}

// Schema is the validated, ordered argument list of one command. It is
// read-only once built and may be shared between goroutines.
type Schema struct {
	specs []ArgSpec
}

// NewSchema validates specs and returns the schema built from them.
func NewSchema(specs ...ArgSpec) (*Schema, error) {
	s := &Schema{specs: append([]ArgSpec(nil), specs...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid schema. Use it for
// package-level command declarations.
func MustSchema(specs ...ArgSpec) *Schema {
	s, err := NewSchema(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks that the schema is internally consistent: names are
// non-blank and unique regardless of case, and a rest argument, if any, is a
// text argument declared last.
func (s *Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.specs))
	for i, spec := range s.specs {
		if strings.TrimSpace(spec.Name) == "" {
			return &SchemaError{Reason: "argument name cannot be blank"}
		}
		if strings.IndexFunc(spec.Name, func(r rune) bool { return unicode.IsSpace(r) || r == ':' || r == '"' }) >= 0 {
			return &SchemaError{Arg: spec.Name, Reason: "name cannot contain whitespace, ':' or '\"'"}
		}

		key := strings.ToLower(spec.Name)
		if _, dup := seen[key]; dup {
			return &SchemaError{Arg: spec.Name, Reason: "duplicate argument name"}
		}
		seen[key] = struct{}{}

		if spec.Type == nil {
			return &SchemaError{Arg: spec.Name, Reason: "type is required"}
		}
		if spec.NamedOnly && spec.PositionalOnly {
			return &SchemaError{Arg: spec.Name, Reason: "cannot be both named-only and positional-only"}
		}
		if spec.Constructor != nil && spec.Type.composite() == nil {
			return &SchemaError{Arg: spec.Name, Reason: "constructor given for a non-composite type"}
		}

		if !spec.Rest {
			continue
		}
		if !spec.Type.IsText() {
			return &SchemaError{Arg: spec.Name, Reason: "an argument capturing the rest of the line must be text"}
		}
		if spec.NamedOnly {
			return &SchemaError{Arg: spec.Name, Reason: "an argument capturing the rest of the line cannot be named-only"}
		}
		if i != len(s.specs)-1 {
			return &SchemaError{Arg: spec.Name, Reason: "an argument capturing the rest of the line must be last"}
		}
	}
	return nil
}

// Specs returns a copy of the argument declarations in order.
func (s *Schema) Specs() []ArgSpec {
	return append([]ArgSpec(nil), s.specs...)
}

func (s *Schema) Len() int {
	return len(s.specs)
}

// Lookup finds an argument by case-insensitive name.
func (s *Schema) Lookup(name string) (ArgSpec, bool) {
	if i := s.index(name); i >= 0 {
		return s.specs[i], true
	}
	return ArgSpec{}, false
}

func (s *Schema) index(name string) int {
	for i := range s.specs {
		if strings.EqualFold(s.specs[i].Name, name) {
			return i
		}
	}
	return -1
}

// Names lists argument names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}
