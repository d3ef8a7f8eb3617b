package args

import "strings"

var closers = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
}

func isCloser(c byte) bool {
	return c == ')' || c == ']' || c == '}'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Segment splits a composite value into its elements.
//
// A value wrapped in one matching pair of (), [] or {} is split on whitespace;
// anything else is split on commas. Nested brackets and quoted strings are
// never split, and each element has its own surrounding quotes removed.
func Segment(value string) ([]string, error) {
	s := strings.TrimSpace(value)

	outerEnd, err := checkBalance(s)
	if err != nil {
		return nil, err
	}

	var parts []string
	if outerEnd == len(s)-1 && len(s) >= 2 {
		parts = splitTop(s[1:len(s)-1], isSpace, true)
	} else if s == "" {
		return []string{}, nil
	} else {
		parts = splitTop(s, func(c byte) bool { return c == ',' }, false)
	}

	for i, p := range parts {
		parts[i] = unquote(p)
	}
	return parts, nil
}

// checkBalance verifies brackets and quotes in s. It returns the index of the
// closer matching s[0] when s starts with an opener, or -1.
func checkBalance(s string) (int, error) {
	var stack []byte
	outerEnd := -1
	inQuote := false
	quoteAt := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == quoteChar && !isEscaped(s, i) {
			inQuote = !inQuote
			if inQuote {
				quoteAt = i
			}
			continue
		}
		if inQuote {
			continue
		}

		if closer, ok := closers[c]; ok {
			stack = append(stack, closer)
			continue
		}
		if !isCloser(c) {
			continue
		}
		if len(stack) == 0 {
			return -1, newParseError(KindSyntax, s, "unbalanced brackets in %s: unexpected '%c' at position %d", s, c, i+1)
		}
		want := stack[len(stack)-1]
		if c != want {
			return -1, newParseError(KindSyntax, s, "unbalanced brackets in %s: expected '%c' but found '%c' at position %d", s, want, c, i+1)
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 && outerEnd < 0 && i > 0 {
			if _, ok := closers[s[0]]; ok {
				outerEnd = i
			}
		}
	}

	if inQuote {
		return -1, newParseError(KindSyntax, s, "unterminated quote in %s starting at position %d", s, quoteAt+1)
	}
	if len(stack) > 0 {
		return -1, newParseError(KindSyntax, s, "unbalanced brackets in %s: missing '%c'", s, stack[len(stack)-1])
	}
	return outerEnd, nil
}

// splitTop splits s at separators that sit outside quotes and brackets.
// When skipEmpty is set, runs of separators produce no empty elements.
func splitTop(s string, sep func(byte) bool, skipEmpty bool) []string {
	parts := make([]string, 0, 4)
	depth := 0
	inQuote := false
	start := 0

	emit := func(end int) {
		part := strings.TrimSpace(s[start:end])
		if part == "" && skipEmpty {
			return
		}
		parts = append(parts, part)
	}

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
		case depth == 0 && sep(c):
			emit(i)
			start = i + 1
		}
	}
	emit(len(s))

	return parts
}
