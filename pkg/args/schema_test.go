package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema_Valid(t *testing.T) {
	s, err := NewSchema(
		ArgSpec{Name: "target", Type: Ref("player")},
		ArgSpec{Name: "pos", Type: pointType(), Constructor: pointType().ctors[0], Optional: true},
		ArgSpec{Name: "silent", Type: Bool(), Optional: true, NamedOnly: true},
		ArgSpec{Name: "reason", Type: Text(), Optional: true, Rest: true},
	)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"target", "pos", "silent", "reason"}, s.Names())

	spec, ok := s.Lookup("REASON")
	require.True(t, ok)
	assert.Equal(t, "reason", spec.Name)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestNewSchema_NullableCompositeConstructor(t *testing.T) {
	pt := pointType()
	_, err := NewSchema(ArgSpec{Name: "at", Type: Nullable(pt), Constructor: pt.ctors[0], Optional: true})
	require.NoError(t, err)

	_, err = NewSchema(ArgSpec{Name: "n", Type: Nullable(Int()), Constructor: pt.ctors[0]})
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestNewSchema_Empty(t *testing.T) {
	s, err := NewSchema()
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		specs   []ArgSpec
		wantMsg string
	}{
		{
			name:    "blank name",
			specs:   []ArgSpec{{Name: " ", Type: Int()}},
			wantMsg: "blank",
		},
		{
			name:    "name with colon",
			specs:   []ArgSpec{{Name: "a:b", Type: Int()}},
			wantMsg: "cannot contain",
		},
		{
			name:    "duplicate ignoring case",
			specs:   []ArgSpec{{Name: "Name", Type: Text()}, {Name: "name", Type: Text()}},
			wantMsg: "duplicate",
		},
		{
			name:    "missing type",
			specs:   []ArgSpec{{Name: "a"}},
			wantMsg: "type is required",
		},
		{
			name:    "named and positional only",
			specs:   []ArgSpec{{Name: "a", Type: Int(), NamedOnly: true, PositionalOnly: true}},
			wantMsg: "both named-only and positional-only",
		},
		{
			name:    "constructor on scalar",
			specs:   []ArgSpec{{Name: "a", Type: Int(), Constructor: &Constructor{}}},
			wantMsg: "non-composite",
		},
		{
			name:    "rest not text",
			specs:   []ArgSpec{{Name: "n", Type: Int(), Rest: true}},
			wantMsg: "must be text",
		},
		{
			name:    "rest named only",
			specs:   []ArgSpec{{Name: "msg", Type: Text(), Rest: true, NamedOnly: true}},
			wantMsg: "cannot be named-only",
		},
		{
			name:    "rest not last",
			specs:   []ArgSpec{{Name: "msg", Type: Text(), Rest: true}, {Name: "n", Type: Int()}},
			wantMsg: "must be last",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.specs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchema)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Error(), tt.wantMsg)
			assert.Zero(t, KindOf(err), "schema errors are not parse errors")
		})
	}
}

func TestMustSchema_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustSchema(ArgSpec{Name: "a", Type: Int()}, ArgSpec{Name: "A", Type: Int()})
	})
	assert.NotPanics(t, func() {
		MustSchema(ArgSpec{Name: "a", Type: Int()})
	})
}

func TestSchema_SpecsIsACopy(t *testing.T) {
	s := MustSchema(ArgSpec{Name: "a", Type: Int()})
	specs := s.Specs()
	specs[0].Name = "changed"
	assert.Equal(t, []string{"a"}, s.Names())
}
