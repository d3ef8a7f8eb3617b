package args

import (
	"errors"
	"strings"
)

type testPlayer struct {
	id   string
	name string
}

func (p testPlayer) EntityID() string   { return p.id }
func (p testPlayer) EntityName() string { return p.name }

type testResolver struct {
	players []testPlayer
}

func newTestResolver() *testResolver {
	return &testResolver{players: []testPlayer{
		{id: "7", name: "Alice"},
		{id: "52", name: "Bob"},
		{id: "90", name: "Carol"},
	}}
}

func (r *testResolver) ResolveEntity(kind, ident string) (Entity, bool) {
	if kind != "player" {
		return nil, false
	}
	for _, p := range r.players {
		if p.id == ident || strings.EqualFold(p.name, ident) {
			return p, true
		}
	}
	return nil, false
}

func (r *testResolver) AllEntities(kind string) []Entity {
	if kind != "player" {
		return nil
	}
	out := make([]Entity, len(r.players))
	for i, p := range r.players {
		out[i] = p
	}
	return out
}

type point struct{ X, Y, Z int }

func pointType() *Type {
	return Composite("point",
		&Constructor{
			Fields: []Field{{Name: "x", Type: Int()}, {Name: "y", Type: Int()}, {Name: "z", Type: Int()}},
			Build: func(v []any) (any, error) {
				return point{v[0].(int), v[1].(int), v[2].(int)}, nil
			},
		},
		&Constructor{
			Fields: []Field{{Name: "x", Type: Int()}, {Name: "y", Type: Int()}},
			Build: func(v []any) (any, error) {
				if v[0].(int) < 0 {
					return nil, errors.New("x must not be negative")
				}
				return point{X: v[0].(int), Y: v[1].(int)}, nil
			},
		},
	)
}

func roleType() *Type {
	return Enum("role",
		EnumMember{Name: "A", Value: 0},
		EnumMember{Name: "B", Value: 1},
		EnumMember{Name: "C", Value: 2},
	)
}

func channelType() *Type {
	return Flags("channel",
		EnumMember{Name: "global", Value: 1},
		EnumMember{Name: "team", Value: 2},
		EnumMember{Name: "whisper", Value: 4},
	)
}
