// /internal/game/types.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"server-console/pkg/args"
)

// Role is the part a player plays in the current round.
type Role int64

const (
	RoleSurvivor Role = iota
	RoleHunter
	RoleSpectator
)

var roleNames = map[Role]string{
	RoleSurvivor:  "survivor",
	RoleHunter:    "hunter",
	RoleSpectator: "spectator",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Role(" + strconv.FormatInt(int64(r), 10) + ")"
}

// RoleType is the argument type for roles.
var RoleType = args.Enum("role",
	args.EnumMember{Name: "survivor", Value: int64(RoleSurvivor)},
	args.EnumMember{Name: "hunter", Value: int64(RoleHunter)},
	args.EnumMember{Name: "spectator", Value: int64(RoleSpectator)},
)

// Channel is a set of chat channels.
type Channel int64

const (
	ChannelGlobal Channel = 1 << iota
	ChannelTeam
	ChannelWhisper

	ChannelAll = ChannelGlobal | ChannelTeam | ChannelWhisper
)

func (c Channel) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, ch := range []struct {
		bit  Channel
		name string
	}{{ChannelGlobal, "global"}, {ChannelTeam, "team"}, {ChannelWhisper, "whisper"}} {
		if c&ch.bit != 0 {
			parts = append(parts, ch.name)
		}
	}
	return strings.Join(parts, "|")
}

func (c Channel) Has(ch Channel) bool { return c&ch == ch }

// ChannelType is the argument type for channel sets, e.g. "global|team".
var ChannelType = args.Flags("channel",
	args.EnumMember{Name: "global", Value: int64(ChannelGlobal)},
	args.EnumMember{Name: "team", Value: int64(ChannelTeam)},
	args.EnumMember{Name: "whisper", Value: int64(ChannelWhisper)},
)

// Vec3 is a world position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) String() string {
	f := func(n float64) string { return strconv.FormatFloat(n, 'g', -1, 64) }
	return fmt.Sprintf("(%s %s %s)", f(v.X), f(v.Y), f(v.Z))
}

var (
	// Vec3XYZ reads all three coordinates.
	Vec3XYZ = &args.Constructor{
		Fields: []args.Field{
			{Name: "x", Type: args.Float()},
			{Name: "y", Type: args.Float()},
			{Name: "z", Type: args.Float()},
		},
		Build: func(v []any) (any, error) {
			return Vec3{X: v[0].(float64), Y: v[1].(float64), Z: v[2].(float64)}, nil
		},
	}
	// Vec3XY reads a ground position; z is 0.
	Vec3XY = &args.Constructor{
		Fields: []args.Field{
			{Name: "x", Type: args.Float()},
			{Name: "y", Type: args.Float()},
		},
		Build: func(v []any) (any, error) {
			return Vec3{X: v[0].(float64), Y: v[1].(float64)}, nil
		},
	}

	// Vec3Type accepts "(x y z)", "x,y,z" or the two-coordinate forms. Without
	// an explicit constructor the two-coordinate form is used.
	Vec3Type = args.Composite("vec3", Vec3XYZ, Vec3XY)
)
