package args

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		token string
		typ   *Type
		want  any
	}{
		{"text", "hello", Text(), "hello"},
		{"empty text", "", Text(), ""},
		{"int", "42", Int(), 42},
		{"negative int", "-3", Int(), -3},
		{"int with padding", " 7 ", Int(), 7},
		{"float", "10", Float(), 10.0},
		{"float exponent", "1e3", Float(), 1000.0},
		{"byte", "255", Byte(), uint8(255)},
		{"bool yes", "YES", Bool(), true},
		{"bool y", "y", Bool(), true},
		{"bool 1", "1", Bool(), true},
		{"bool n", "n", Bool(), false},
		{"bool false", "False", Bool(), false},
		{"bool strconv", "T", Bool(), true},
		{"enum by name", "b", roleType(), EnumValue{Name: "B", Value: 1}},
		{"enum by value", "2", roleType(), EnumValue{Name: "C", Value: 2}},
		{"flags by names", "global|team", channelType(), EnumValue{Name: "global|team", Value: 3}},
		{"flags by comma", "TEAM,global", channelType(), EnumValue{Name: "global|team", Value: 3}},
		{"flags by number", "5", channelType(), EnumValue{Name: "global|whisper", Value: 5}},
		{"nullable null", "null", Nullable(Int()), nil},
		{"nullable empty", "", Nullable(Int()), nil},
		{"nullable value", "5", Nullable(Int()), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.token, tt.typ, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_ScalarErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		typ     *Type
		wantMsg string
	}{
		{"int fraction", "4.2", Int(), "expected a whole number"},
		{"int word", "ten", Int(), "expected a whole number"},
		{"float word", "abc", Float(), "expected a number"},
		{"float nan", "NaN", Float(), "expected a number"},
		{"float inf", "+Inf", Float(), "expected a number"},
		{"byte overflow", "256", Byte(), "between 0 and 255"},
		{"byte negative", "-1", Byte(), "between 0 and 255"},
		{"bool", "maybe", Bool(), "expected true/false"},
		{"enum", "Z", roleType(), "expected one of: A, B, C"},
		{"enum unknown value", "7", roleType(), "expected one of: A, B, C"},
		{"flags unknown bit", "8", channelType(), "any combination of: global, team, whisper"},
		{"flags unknown name", "global|party", channelType(), "any combination of"},
		{"flags empty", "", channelType(), "any combination of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.token, tt.typ, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCoercion)

			var ce *CoercionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.typ.Name(), ce.Type)
			assert.Contains(t, ce.Msg, tt.wantMsg)
		})
	}
}

func TestCoerce_Ref(t *testing.T) {
	r := newTestResolver()

	got, err := Coerce("52", Ref("player"), nil, r)
	require.NoError(t, err)
	assert.Equal(t, testPlayer{id: "52", name: "Bob"}, got)

	got, err = Coerce("carol", Ref("player"), nil, r)
	require.NoError(t, err)
	assert.Equal(t, "90", got.(Entity).EntityID())

	_, err = Coerce("nobody", Ref("player"), nil, r)
	require.Error(t, err)
	assert.EqualError(t, err, `invalid player "nobody": player not found`)

	_, err = Coerce("52", Ref("player"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no player lookup is available")
}

func TestCoerce_Lists(t *testing.T) {
	got, err := Coerce("[1 2 3]", List(Int()), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, got)

	got, err = Coerce("a,b", List(Text()), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	got, err = Coerce("[]", List(Int()), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	got, err = Coerce("[[1 2] [3]]", List(List(Int())), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1, 2}, []any{3}}, got)

	_, err = Coerce("1,x,3", List(Int()), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Contains(t, err.Error(), `element 2 ("x"): expected a whole number`)

	_, err = Coerce("[1 2", List(Int()), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestCoerce_RefListExpandsAll(t *testing.T) {
	r := newTestResolver()
	ids := func(v any) []string {
		var out []string
		for _, e := range v.([]Entity) {
			out = append(out, e.EntityID())
		}
		return out
	}

	got, err := Coerce("*", List(Ref("player")), nil, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "52", "90"}, ids(got))

	got, err = Coerce("bob,*", List(Ref("player")), nil, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"52", "7", "90"}, ids(got))

	got, err = Coerce("[bob 52 BOB]", List(Ref("player")), nil, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"52"}, ids(got))

	_, err = Coerce("bob,nobody", List(Ref("player")), nil, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `element 2 ("nobody"): player not found`)
}

func TestCoerce_Composite(t *testing.T) {
	pt := pointType()

	got, err := Coerce("(1 2)", pt, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, got)

	got, err = Coerce("4,5", pt, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, point{X: 4, Y: 5}, got)

	got, err = Coerce("(1 2 3)", pt, pt.ctors[0], nil)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2, Z: 3}, got)

	_, err = Coerce("(1 2 3)", pt, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 values (x y), got 3")

	_, err = Coerce("(1 a)", pt, nil, nil)
	require.Error(t, err)
	assert.EqualError(t, err, `invalid point "(1 a)": y: expected a whole number`)

	_, err = Coerce("(-1 2)", pt, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x must not be negative")

	got, err = Coerce("[(1 2) (3 4)]", List(pt), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{point{X: 1, Y: 2}, point{X: 3, Y: 4}}, got)

	got, err = Coerce("null", Nullable(pt), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCoerce_ZeroFieldConstructor(t *testing.T) {
	origin := Composite("origin", &Constructor{
		Build: func([]any) (any, error) { return point{}, nil },
	})

	got, err := Coerce("anything", origin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, point{}, got)
}

func nested(levels int) (*Type, string) {
	typ := Int()
	for i := 0; i < levels; i++ {
		typ = List(typ)
	}
	return typ, strings.Repeat("[", levels) + "1" + strings.Repeat("]", levels)
}

func TestCoerce_RecursionLimit(t *testing.T) {
	typ, token := nested(DefaultMaxDepth)
	_, err := Coerce(token, typ, nil, nil)
	require.NoError(t, err)

	typ, token = nested(DefaultMaxDepth + 1)
	_, err = Coerce(token, typ, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursionLimit)
	assert.Equal(t, KindRecursionLimit, KindOf(err))
}

func TestCoerce_DepthDoesNotLeakBetweenCalls(t *testing.T) {
	typ, token := nested(DefaultMaxDepth)
	for i := 0; i < 3; i++ {
		_, err := Coerce(token, typ, nil, nil)
		require.NoError(t, err, "call %d", i)
	}
}
