package args

import "strings"

const (
	quoteChar  = '"'
	escapeChar = '\\'
)

// Reassemble merges runs of raw tokens that belong to one quoted phrase back
// into a single Token. A run opens on a token starting with a quote (or a
// name:value token whose value starts with one) that does not close itself,
// and ends on the first token ending in an unescaped quote. Input that ends
// inside an open quoted run is a syntax error.
//
// Bracketed literals split by whitespace, such as "(1" "2" "3)", are merged
// the same way until their brackets balance. An unbalanced bracket run is
// left as separate tokens for the segmenter to report.
func Reassemble(raw []string) ([]Token, error) {
	out := make([]Token, 0, len(raw))

	var (
		run  []string
		kind runKind
	)
	for _, tok := range raw {
		if kind == runNone {
			if kind = startsRun(tok); kind != runNone {
				run = []string{tok}
				continue
			}
			out = append(out, makeToken(tok))
			continue
		}

		run = append(run, tok)
		joined := strings.Join(run, " ")
		if (kind == runQuote && endsWithUnescapedQuote(tok)) || (kind == runBracket && !groupOpen(joined)) {
			out = append(out, makeToken(joined))
			run, kind = nil, runNone
		}
	}

	if kind != runNone {
		joined := strings.Join(run, " ")
		if kind == runQuote || quoteOpen(joined) {
			return nil, newParseError(KindSyntax, joined, "unclosed quotation: %s", joined)
		}
		for _, tok := range run {
			out = append(out, makeToken(tok))
		}
	}

	return out, nil
}

type runKind int

const (
	runNone runKind = iota
	runQuote
	runBracket
)

// startsRun reports whether tok opens a quoted or bracketed run that
// continues into the following tokens.
func startsRun(tok string) runKind {
	seg := tok
	if !strings.HasPrefix(tok, `"`) {
		if idx := namedColon(tok); idx >= 0 {
			seg = tok[idx+1:]
		}
	}
	switch {
	case strings.HasPrefix(seg, `"`):
		if !(len(seg) >= 2 && endsWithUnescapedQuote(seg)) {
			return runQuote
		}
	case seg != "" && closers[seg[0]] != 0:
		if groupOpen(seg) {
			return runBracket
		}
	}
	return runNone
}

// groupOpen reports whether s ends inside a quote or an unclosed bracket.
func groupOpen(s string) bool {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quoteChar && !isEscaped(s, i):
			inQuote = !inQuote
		case inQuote:
		case closers[c] != 0:
			depth++
		case isCloser(c):
			depth--
		}
	}
	return inQuote || depth > 0
}

func quoteOpen(s string) bool {
	inQuote := false
	for i := 0; i < len(s); i++ {
		if s[i] == quoteChar && !isEscaped(s, i) {
			inQuote = !inQuote
		}
	}
	return inQuote
}

func makeToken(text string) Token {
	if isQuoted(text) {
		return Token{Text: unquote(text), Raw: text, Quoted: true}
	}
	return Token{Text: text, Raw: text}
}

// isEscaped reports whether s[i] is preceded by an odd number of backslashes.
func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == escapeChar; j-- {
		n++
	}
	return n%2 == 1
}

func endsWithUnescapedQuote(s string) bool {
	if s == "" || s[len(s)-1] != quoteChar {
		return false
	}
	return !isEscaped(s, len(s)-1)
}

// isQuoted reports whether s is wrapped in a single pair of unescaped quotes.
func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == quoteChar && endsWithUnescapedQuote(s)
}

// unquote strips the outer quotes of s, if present, and resolves \" and \\.
func unquote(s string) string {
	if !isQuoted(s) {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.ContainsRune(inner, escapeChar) {
		return inner
	}

	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == escapeChar && i+1 < len(inner) && (inner[i+1] == quoteChar || inner[i+1] == escapeChar) {
			b.WriteByte(inner[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// namedColon returns the index of the first unescaped ':' outside quotes that
// has text on both sides, or -1 when s is not in name:value form.
func namedColon(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case quoteChar:
			if !isEscaped(s, i) {
				inQuote = !inQuote
			}
		case ':':
			if inQuote || isEscaped(s, i) {
				continue
			}
			if i == 0 || i == len(s)-1 {
				return -1
			}
			return i
		}
	}
	return -1
}

// unescapeColons turns \: into : for positional text.
func unescapeColons(s string) string {
	if !strings.Contains(s, `\:`) {
		return s
	}
	return strings.ReplaceAll(s, `\:`, ":")
}
