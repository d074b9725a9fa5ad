package sanitize

import (
	"regexp"
	"strings"
)

// Pass is one named text-repair step.
type Pass struct {
	Name  string
	Apply func(string) string
}

var (
	reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

	fencedBlock   = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\r?\\n(.*?)```")
	openFenceLine = regexp.MustCompile("^\\s*```[A-Za-z]*[ \\t]*\\r?\\n")
	closeFence    = regexp.MustCompile("\\r?\\n?```\\s*$")

	fstringPrefix = regexp.MustCompile(`([:\[,(]\s*)f(\z|')`)

	singleBraceRef   = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)
	truncatedRef     = regexp.MustCompile(`\$\{\{([A-Za-z0-9_]+)\}(\}?)`)
	unclosedRefValue = regexp.MustCompile(`("\$\{\{[A-Za-z0-9_]+\}\})(\s*(?:\}|,\s*"[^"]*"\s*:))`)
	bareRefValue     = regexp.MustCompile(`(:\s*)(\$\{\{[A-Za-z0-9_]+\}\}[^",}\]\s]*)`)

	arrayStart    = regexp.MustCompile(`\[\s*\{`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// StripReasoning drops <think>...</think> blocks some models emit before answering.
func StripReasoning(s string) string {
	if !strings.Contains(s, "<think>") {
		return s
	}
	return strings.TrimSpace(reasoningBlock.ReplaceAllString(s, ""))
}

// StripCodeFences keeps only the content of the first markdown code block.
// An opening fence with no closing fence (a truncated reply) is dropped too.
func StripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	s = openFenceLine.ReplaceAllString(s, "")
	return closeFence.ReplaceAllString(s, "")
}

// StripFStringPrefix removes a template-literal prefix (f"..." or f'...') in
// value position. Text inside string literals is left alone.
func StripFStringPrefix(s string) string {
	if !strings.Contains(s, "f\"") && !strings.Contains(s, "f'") {
		return s
	}
	return mapOutsideStrings(s, func(seg string) string {
		return fstringPrefix.ReplaceAllString(seg, "${1}${2}")
	})
}

// NormalizeReferences rewrites result references to the canonical ${{name}} form:
//
//	${name}              -> ${{name}}
//	${{name}/x, ${{name}_x, ${{name}, ${{name} at end -> ${{name}}...
//	"key": "${{name}},   -> "key": "${{name}}",   (missing closing quote)
//	"key": ${{name}}/x   -> "key": "${{name}}/x"  (unquoted value)
func NormalizeReferences(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	s = singleBraceRef.ReplaceAllString(s, "$${{${1}}}")
	s = truncatedRef.ReplaceAllStringFunc(s, func(m string) string {
		if strings.HasSuffix(m, "}}") {
			return m
		}
		return m + "}"
	})
	s = unclosedRefValue.ReplaceAllString(s, `${1}"${2}`)
	return mapOutsideStrings(s, func(seg string) string {
		return bareRefValue.ReplaceAllString(seg, `${1}"${2}"`)
	})
}

// ExtractArray cuts the first array of objects out of surrounding prose.
func ExtractArray(s string) string {
	loc := arrayStart.FindStringIndex(s)
	if loc == nil {
		return s
	}
	start := loc[0]
	end := matchingBracket(s, start)
	if end < 0 {
		// truncated: keep through the last ']' if there is one after the start
		end = strings.LastIndex(s, "]")
		if end < start {
			return s[start:]
		}
	}
	return s[start : end+1]
}

// StripComments removes // line comments and /* */ block comments that sit
// outside string literals, so URLs inside values survive.
func StripComments(s string) string {
	if !strings.Contains(s, "//") && !strings.Contains(s, "/*") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			end := closingQuote(s, i)
			b.WriteString(s[i:end])
			i = end - 1
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				i = len(s)
			} else {
				i += nl - 1
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			closeAt := strings.Index(s[i+2:], "*/")
			if closeAt < 0 {
				i = len(s)
			} else {
				i += 2 + closeAt + 1
			}
		default:
			b.WriteByte(c)
		}
	}
	return trimLineEnds(b.String())
}

func trimLineEnds(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Join(lines, "\n")
}

// StripTrailingCommas removes a comma directly before '}' or ']'.
func StripTrailingCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return mapOutsideStrings(s, func(seg string) string {
		return trailingComma.ReplaceAllString(seg, "${1}")
	})
}

// TrimSpace removes surrounding whitespace.
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}
