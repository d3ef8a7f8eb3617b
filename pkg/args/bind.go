package args

import (
	"errors"
	"fmt"
	"strings"
)

// Binder matches tokens to a schema and coerces them. The zero value is
// usable; set Resolver when schemas contain Ref types.
type Binder struct {
	Resolver Resolver
	// MaxDepth bounds list and composite nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Bind binds tokens to schema using r for Ref types.
func Bind(schema *Schema, tokens []string, r Resolver) (Values, error) {
	b := Binder{Resolver: r}
	return b.Bind(schema, tokens)
}

// Bind matches tokens to schema and returns the decoded values keyed by
// argument name. Every failure is a *ParseError. Bind holds no state between
// calls and is safe for concurrent use.
func (b *Binder) Bind(schema *Schema, tokens []string) (Values, error) {
	if schema == nil {
		schema = &Schema{}
	}
	specs := schema.specs

	toks, err := Reassemble(tokens)
	if err != nil {
		return nil, err
	}

	raw := make([]string, len(specs))
	set := make([]bool, len(specs))
	seenNamed := false

	for i := 0; i < len(toks); i++ {
		tok := toks[i]

		if !tok.Quoted {
			if idx := namedColon(tok.Text); idx >= 0 {
				seenNamed = true
				si, err := bindNamed(schema, tok.Text[:idx], set)
				if err != nil {
					err.Token = tok.Raw
					return nil, err
				}
				raw[si] = unquote(tok.Text[idx+1:])
				set[si] = true
				continue
			}
		}

		if seenNamed {
			return nil, newParseError(KindOrdering, tok.Raw, "positional argument %q cannot follow named arguments", tok.Text)
		}

		si := nextPositional(specs, set)
		if si < 0 {
			return nil, newParseError(KindOrdering, tok.Raw, "too many arguments: unexpected %q", tok.Text)
		}

		if specs[si].Rest {
			for j, spec := range specs {
				if j != si && !set[j] && !spec.Optional {
					return nil, &ParseError{
						Kind:  KindOrdering,
						Arg:   specs[si].Name,
						Token: tok.Raw,
						Msg:   fmt.Sprintf("argument %q must be the last argument, but %q has not been given", specs[si].Name, spec.Name),
					}
				}
			}
			raw[si] = joinRest(toks[i:])
			set[si] = true
			break
		}

		raw[si] = positionalText(tok)
		set[si] = true
	}

	for i, spec := range specs {
		if !set[i] && !spec.Optional {
			return nil, &ParseError{
				Kind: KindMissingArgument,
				Arg:  spec.Name,
				Msg:  fmt.Sprintf("missing required argument %q", spec.Name),
			}
		}
	}

	c := &coercer{resolver: b.Resolver, maxDepth: b.MaxDepth}
	if c.maxDepth <= 0 {
		c.maxDepth = DefaultMaxDepth
	}

	values := make(Values, len(specs))
	for i, spec := range specs {
		if !set[i] {
			if spec.Default != nil {
				values[spec.Name] = spec.Default
			} else {
				values[spec.Name] = spec.Type.zero()
			}
			continue
		}

		if raw[i] == "" && !acceptsEmpty(spec.Type) {
			return nil, &ParseError{
				Kind: KindCoercion,
				Arg:  spec.Name,
				Msg:  fmt.Sprintf("argument %q cannot have an empty value", spec.Name),
			}
		}

		v, err := c.coerce(raw[i], spec.Type, spec.Constructor)
		if err != nil {
			return nil, argumentError(spec.Name, raw[i], err)
		}
		values[spec.Name] = v
	}

	return values, nil
}

func bindNamed(schema *Schema, name string, set []bool) (int, *ParseError) {
	si := schema.index(name)
	if si < 0 {
		if len(schema.specs) == 0 {
			return -1, newParseError(KindUnknownArgument, "", "unknown argument %q: this command takes no arguments", name)
		}
		return -1, newParseError(KindUnknownArgument, "", "unknown argument %q, available arguments: %s", name, strings.Join(schema.Names(), ", "))
	}

	spec := schema.specs[si]
	switch {
	case spec.Rest:
		return -1, &ParseError{Kind: KindSyntax, Arg: spec.Name, Msg: fmt.Sprintf("argument %q captures the rest of the line and cannot be given by name", spec.Name)}
	case spec.PositionalOnly:
		return -1, &ParseError{Kind: KindSyntax, Arg: spec.Name, Msg: fmt.Sprintf("argument %q cannot be given by name", spec.Name)}
	case set[si]:
		return -1, &ParseError{Kind: KindDuplicateArgument, Arg: spec.Name, Msg: fmt.Sprintf("argument %q was provided more than once", spec.Name)}
	}
	return si, nil
}

func nextPositional(specs []ArgSpec, set []bool) int {
	for i, spec := range specs {
		if !set[i] && !spec.NamedOnly {
			return i
		}
	}
	return -1
}

func positionalText(tok Token) string {
	if tok.Quoted {
		return tok.Text
	}
	return unescapeColons(tok.Text)
}

// joinRest space-joins the remaining tokens, each unquoted the same way a
// single positional token would be.
func joinRest(toks []Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = positionalText(tok)
	}
	return strings.Join(parts, " ")
}

func acceptsEmpty(t *Type) bool {
	return t.kind == KindText || t.kind == KindNullable
}

func argumentError(name, value string, err error) error {
	var ce *CoercionError
	if errors.As(err, &ce) {
		return &ParseError{
			Kind:  KindCoercion,
			Arg:   name,
			Token: value,
			Msg:   fmt.Sprintf("argument %q: %s", name, ce.Error()),
			Err:   ce,
		}
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		return &ParseError{
			Kind:  pe.Kind,
			Arg:   name,
			Token: pe.Token,
			Msg:   fmt.Sprintf("argument %q: %s", name, pe.Msg),
			Err:   pe.Err,
		}
	}
	return &ParseError{Kind: KindCoercion, Arg: name, Token: value, Msg: fmt.Sprintf("argument %q: %v", name, err), Err: err}
}
