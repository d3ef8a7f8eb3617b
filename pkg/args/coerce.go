package args

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds list and composite nesting within one value.
const DefaultMaxDepth = 10

// Coerce converts token to a value of type t. ctor selects a composite
// constructor and may be nil. r is only consulted for Ref types.
func Coerce(token string, t *Type, ctor *Constructor, r Resolver) (any, error) {
	c := &coercer{resolver: r, maxDepth: DefaultMaxDepth}
	return c.coerce(token, t, ctor)
}

// coercer holds the state of one top-level conversion. It is never shared
// between calls, so the depth counter cannot leak across goroutines.
type coercer struct {
	resolver Resolver
	maxDepth int
	depth    int
}

func (c *coercer) coerce(token string, t *Type, ctor *Constructor) (any, error) {
	switch t.kind {
	case KindText:
		return token, nil
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected a whole number", Err: err}
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected a number", Err: err}
		}
		return f, nil
	case KindByte:
		n, err := strconv.ParseUint(strings.TrimSpace(token), 10, 8)
		if err != nil {
			return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected a number between 0 and 255", Err: err}
		}
		return uint8(n), nil
	case KindBool:
		return coerceBool(token, t)
	case KindEnum:
		if t.flags {
			return coerceFlags(token, t)
		}
		return coerceEnum(token, t)
	case KindRef:
		return c.ref(token, t)
	case KindList:
		return c.list(token, t)
	case KindComposite:
		return c.composite(token, t, ctor)
	case KindNullable:
		if token == "" || strings.EqualFold(token, "null") {
			return nil, nil
		}
		return c.coerce(token, t.elem, ctor)
	default:
		return nil, &CoercionError{Type: t.name, Value: token, Msg: "unsupported type"}
	}
}

func coerceBool(token string, t *Type) (any, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(token)
	if err != nil {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected true/false, yes/no, y/n or 1/0", Err: err}
	}
	return b, nil
}

func coerceEnum(token string, t *Type) (any, error) {
	token = strings.TrimSpace(token)
	for _, m := range t.enum {
		if strings.EqualFold(m.Name, token) {
			return EnumValue{Name: m.Name, Value: m.Value}, nil
		}
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		for _, m := range t.enum {
			if m.Value == n {
				return EnumValue{Name: m.Name, Value: m.Value}, nil
			}
		}
	}
	return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected one of: " + t.memberNames()}
}

func coerceFlags(token string, t *Type) (any, error) {
	var all int64
	for _, m := range t.enum {
		all |= m.Value
	}

	fail := func() (any, error) {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: "expected any combination of: " + t.memberNames()}
	}

	parts := strings.FieldsFunc(token, func(r rune) bool { return r == '|' || r == ',' })
	if len(parts) == 0 {
		return fail()
	}

	var value int64
	for _, part := range parts {
		part = strings.TrimSpace(part)
		matched := false
		for _, m := range t.enum {
			if strings.EqualFold(m.Name, part) {
				value |= m.Value
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 || n&^all != 0 {
			return fail()
		}
		value |= n
	}

	return EnumValue{Name: flagNames(t, value), Value: value}, nil
}

func flagNames(t *Type, value int64) string {
	var names []string
	for _, m := range t.enum {
		if m.Value == 0 {
			if value == 0 {
				return m.Name
			}
			continue
		}
		if value&m.Value == m.Value {
			names = append(names, m.Name)
		}
	}
	return strings.Join(names, "|")
}

func (c *coercer) ref(token string, t *Type) (any, error) {
	if c.resolver == nil {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: "no " + t.name + " lookup is available"}
	}
	e, ok := c.resolver.ResolveEntity(t.name, token)
	if !ok {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: t.name + " not found"}
	}
	return e, nil
}

func (c *coercer) enter(token string) error {
	c.depth++
	if c.depth > c.maxDepth {
		return newParseError(KindRecursionLimit, token, "value %s nests deeper than %d levels", token, c.maxDepth)
	}
	return nil
}

func (c *coercer) leave() {
	c.depth--
}

func (c *coercer) list(token string, t *Type) (any, error) {
	if err := c.enter(token); err != nil {
		return nil, err
	}
	defer c.leave()

	parts, err := Segment(token)
	if err != nil {
		return nil, err
	}

	if t.elem.kind == KindRef {
		return c.refList(token, parts, t)
	}

	out := make([]any, 0, len(parts))
	for i, part := range parts {
		v, err := c.coerce(part, t.elem, nil)
		if err != nil {
			return nil, elementError(t, token, i, part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// refList resolves a list of references. "*" expands to every known entity
// and duplicates are dropped, keeping the first occurrence.
func (c *coercer) refList(token string, parts []string, t *Type) (any, error) {
	out := make([]Entity, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	add := func(e Entity) {
		if _, dup := seen[e.EntityID()]; dup {
			return
		}
		seen[e.EntityID()] = struct{}{}
		out = append(out, e)
	}

	for i, part := range parts {
		if part == allToken {
			if c.resolver == nil {
				return nil, elementError(t, token, i, part, &CoercionError{Type: t.elem.name, Value: part, Msg: "no " + t.elem.name + " lookup is available"})
			}
			for _, e := range c.resolver.AllEntities(t.elem.name) {
				add(e)
			}
			continue
		}
		v, err := c.ref(part, t.elem)
		if err != nil {
			return nil, elementError(t, token, i, part, err)
		}
		add(v.(Entity))
	}
	return out, nil
}

func elementError(t *Type, token string, i int, part string, err error) error {
	ce, ok := err.(*CoercionError)
	if !ok {
		return err
	}
	return &CoercionError{
		Type:  t.name,
		Value: token,
		Msg:   fmt.Sprintf("element %d (%q): %s", i+1, part, ce.Msg),
		Err:   ce,
	}
}

func (c *coercer) composite(token string, t *Type, ctor *Constructor) (any, error) {
	if ctor == nil {
		ctor = t.DefaultConstructor()
	}
	if ctor == nil || ctor.Build == nil {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: "type cannot be constructed"}
	}
	if len(ctor.Fields) == 0 {
		return build(ctor, t, token, nil)
	}

	if err := c.enter(token); err != nil {
		return nil, err
	}
	defer c.leave()

	parts, err := Segment(token)
	if err != nil {
		return nil, err
	}
	if len(parts) != len(ctor.Fields) {
		return nil, &CoercionError{
			Type:  t.name,
			Value: token,
			Msg:   fmt.Sprintf("expected %d values (%s), got %d", len(ctor.Fields), fieldNames(ctor), len(parts)),
		}
	}

	values := make([]any, len(parts))
	for i, f := range ctor.Fields {
		v, err := c.coerce(parts[i], f.Type, nil)
		if err != nil {
			if ce, ok := err.(*CoercionError); ok {
				return nil, &CoercionError{Type: t.name, Value: token, Msg: fmt.Sprintf("%s: %s", f.Name, ce.Msg), Err: ce}
			}
			return nil, err
		}
		values[i] = v
	}
	return build(ctor, t, token, values)
}

func build(ctor *Constructor, t *Type, token string, values []any) (any, error) {
	v, err := ctor.Build(values)
	if err != nil {
		return nil, &CoercionError{Type: t.name, Value: token, Msg: err.Error(), Err: err}
	}
	return v, nil
}

func fieldNames(ctor *Constructor) string {
	names := make([]string, len(ctor.Fields))
	for i, f := range ctor.Fields {
		names[i] = f.Name
	}
	return strings.Join(names, " ")
}
