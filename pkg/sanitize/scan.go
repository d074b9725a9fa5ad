package sanitize

import "strings"

// mapOutsideStrings applies fn to every run of text that is not inside a
// double-quoted JSON string literal. String literals (quotes included) are
// copied verbatim; an unterminated literal runs to the end of the input.
func mapOutsideStrings(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))

	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		b.WriteString(fn(s[start:i]))
		end := closingQuote(s, i)
		b.WriteString(s[i:end])
		start = end
		i = end - 1
	}
	b.WriteString(fn(s[start:]))
	return b.String()
}

// closingQuote returns the index just past the literal opened at s[open].
func closingQuote(s string, open int) int {
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(s)
}

// matchingBracket returns the index of the ']' closing the '[' at s[open],
// skipping string literals and comments, or -1 when the array is never closed.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			i = closingQuote(s, i) - 1
		case '/':
			i = commentEnd(s, i) - 1
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// commentEnd returns the index just past a // or /* */ comment starting at
// s[at], or at+1 when no comment starts there.
func commentEnd(s string, at int) int {
	if at+1 >= len(s) {
		return at + 1
	}
	switch s[at+1] {
	case '/':
		if nl := strings.IndexByte(s[at:], '\n'); nl >= 0 {
			return at + nl
		}
		return len(s)
	case '*':
		if end := strings.Index(s[at+2:], "*/"); end >= 0 {
			return at + 2 + end + 2
		}
		return len(s)
	}
	return at + 1
}
