package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"[a b c]", []string{"a", "b", "c"}},
		{"(1 2 3)", []string{"1", "2", "3"}},
		{"{x   y}", []string{"x", "y"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "", "b"}},
		{`["a b" c]`, []string{"a b", "c"}},
		{`"x,y",z`, []string{"x,y", "z"}},
		{"[(1 2) (3 4)]", []string{"(1 2)", "(3 4)"}},
		{"(1 2),(3 4)", []string{"(1 2)", "(3 4)"}},
		{"single", []string{"single"}},
		{"  padded  ", []string{"padded"}},
		{"", []string{}},
		{"[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Segment(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegment_Errors(t *testing.T) {
	tests := []struct {
		in      string
		wantMsg string
	}{
		{"[a b", "missing ']'"},
		{"a]", "unexpected ']'"},
		{"(a]", "expected ')' but found ']'"},
		{"{[}]", "expected ']' but found '}'"},
		{`"abc`, "unterminated quote"},
		{`[a "b]`, "unterminated quote"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Segment(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			assert.Equal(t, KindSyntax, KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSegment_BracketsInsideQuotesIgnored(t *testing.T) {
	got, err := Segment(`["(" "]"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"(", "]"}, got)
}
