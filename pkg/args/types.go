package args

import (
	"fmt"
	"strings"
)

// Kind identifies how a Type is decoded.
type Kind int

const (
	KindText Kind = iota + 1
	KindInt
	KindFloat
	KindByte
	KindBool
	KindEnum
	KindRef
	KindList
	KindComposite
	KindNullable
)

// Type describes a target type for coercion. Types are built with the
// constructors below and are immutable afterwards; a single *Type may be shared
// by any number of schemas.
type Type struct {
	kind  Kind
	name  string
	elem  *Type
	enum  []EnumMember
	flags bool
	ctors []*Constructor
}

var (
	textType  = &Type{kind: KindText, name: "text"}
	intType   = &Type{kind: KindInt, name: "int"}
	floatType = &Type{kind: KindFloat, name: "float"}
	byteType  = &Type{kind: KindByte, name: "byte"}
	boolType  = &Type{kind: KindBool, name: "bool"}
)

// Text returns the text type. Values are string.
func Text() *Type { return textType }

// Int returns the whole-number type. Values are int.
func Int() *Type { return intType }

// Float returns the floating-point type. Values are float64.
func Float() *Type { return floatType }

// Byte returns the 0-255 type. Values are uint8.
func Byte() *Type { return byteType }

// Bool returns the boolean type. Values are bool.
func Bool() *Type { return boolType }

// EnumMember is one declared member of an enumeration.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumValue is the coerced value of an enumeration. For flag sets Name holds
// the matched member names joined with '|'.
type EnumValue struct {
	Name  string
	Value int64
}

func (v EnumValue) String() string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprint(v.Value)
}

// Has reports whether every bit of flag is set in v.
func (v EnumValue) Has(flag int64) bool {
	return v.Value&flag == flag
}

// Enum declares an enumeration matched case-insensitively by member name or
// by the exact numeric value of a member.
func Enum(name string, members ...EnumMember) *Type {
	return &Type{kind: KindEnum, name: name, enum: append([]EnumMember(nil), members...)}
}

// Flags declares a bit-flag enumeration. Members may be combined with '|' or
// ',' and numeric values are accepted when every bit belongs to a member.
func Flags(name string, members ...EnumMember) *Type {
	t := Enum(name, members...)
	t.flags = true
	return t
}

// Ref declares a domain-reference type resolved through a Resolver. Values
// are Entity.
func Ref(name string) *Type {
	return &Type{kind: KindRef, name: name}
}

// List declares a homogeneous list. Values are []any, or []Entity for lists
// of references.
func List(elem *Type) *Type {
	return &Type{kind: KindList, name: elem.name + " list", elem: elem}
}

// Nullable wraps t so that "null" or an empty value decode to nil.
func Nullable(t *Type) *Type {
	return &Type{kind: KindNullable, name: t.name, elem: t}
}

// Field is one parameter of a Constructor.
type Field struct {
	Name string
	Type *Type
}

// Constructor is an explicit parameter list for a composite type plus the
// function that assembles the decoded parameters into a value.
type Constructor struct {
	Fields []Field
	Build  func(values []any) (any, error)
}

// Composite declares a type decoded from a fixed, ordered list of sub-values.
// When more than one constructor is given, the one with the fewest fields is
// used unless an ArgSpec names another.
func Composite(name string, ctors ...*Constructor) *Type {
	return &Type{kind: KindComposite, name: name, ctors: append([]*Constructor(nil), ctors...)}
}

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) Name() string { return t.name }

// Elem returns the element type of a list or nullable type.
func (t *Type) Elem() *Type { return t.elem }

// Members returns a copy of the declared enumeration members.
func (t *Type) Members() []EnumMember {
	return append([]EnumMember(nil), t.enum...)
}

func (t *Type) IsFlags() bool { return t.flags }

// IsText reports whether t decodes to plain text.
func (t *Type) IsText() bool { return t.kind == KindText }

// DefaultConstructor returns the constructor with the fewest fields, or nil
// for non-composite types.
func (t *Type) DefaultConstructor() *Constructor {
	var best *Constructor
	for _, c := range t.ctors {
		if best == nil || len(c.Fields) < len(best.Fields) {
			best = c
		}
	}
	return best
}

// memberNames lists the enumeration's member names in declaration order.
func (t *Type) memberNames() string {
	names := make([]string, len(t.enum))
	for i, m := range t.enum {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}

// composite returns t, or the type t makes nullable, when it is a composite.
func (t *Type) composite() *Type {
	if t.kind == KindNullable {
		t = t.elem
	}
	if t.kind == KindComposite {
		return t
	}
	return nil
}

// zero returns the default of an unbound optional argument of type t.
func (t *Type) zero() any {
	switch t.kind {
	case KindText:
		return ""
	case KindInt:
		return 0
	case KindFloat:
		return float64(0)
	case KindByte:
		return uint8(0)
	case KindBool:
		return false
	case KindEnum:
		for _, m := range t.enum {
			if m.Value == 0 {
				return EnumValue{Name: m.Name}
			}
		}
		return EnumValue{}
	default:
		return nil
	}
}
