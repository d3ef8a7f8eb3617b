package args

import "strings"

// Tokens is the read-only word list supplied for one invocation.
type Tokens []string

// Split breaks a command line on whitespace. Quoting is not interpreted here;
// Reassemble merges quoted runs back together.
func Split(line string) Tokens {
	return Tokens(strings.Fields(line))
}

func (t Tokens) Len() int {
	return len(t)
}

// At returns the token at i, or "" when i is out of range.
func (t Tokens) At(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return t[i]
}

// JoinFrom space-joins every token from index i to the end.
func (t Tokens) JoinFrom(i int) string {
	if i < 0 {
		i = 0
	}
	if i >= len(t) {
		return ""
	}
	return strings.Join(t[i:], " ")
}

// Token is one logical word after quoted runs have been merged.
type Token struct {
	// Text is the token with its outer quotes removed and escapes resolved.
	Text string
	// Raw is the merged source text, quotes included.
	Raw string
	// Quoted is set when the whole token was a quoted string. Quoted tokens are
	// always positional.
	Quoted bool
}
