package coretools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

var (
	wordPattern    = regexp.MustCompile(`\w+`)
	nonWordPattern = regexp.MustCompile(`[\W_]+`)
)

func textTools(opts Options) []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		textTool("text_to_uppercase", "Convert text to upper case.", "upper-case text", strings.ToUpper),
		textTool("text_to_lowercase", "Convert text to lower case.", "lower-case text", strings.ToLower),
		textTool("count_words", "Count characters and words in text.", "character and word counts", CountWords),
		textTool("clean_text", "Remove punctuation and collapse whitespace.", "cleaned text", CleanText),
		textTool("to_fullwidth", "Convert ASCII characters to full-width forms.", "full-width text", ToFullwidth),
		textTool("to_halfwidth", "Convert full-width characters to ASCII.", "half-width text", ToHalfwidth),
	}
}

func textTool(name, description, returns string, fn func(string) string) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "text", Description: "Input text", Required: true},
		},
		Returns: returns,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return fn(stringParam(params, "text")), nil
		},
	}
}

// CountWords reports the rune count and the number of \w+ runs.
func CountWords(text string) string {
	words := wordPattern.FindAllString(text, -1)
	return fmt.Sprintf("Characters: %d, Words: %d", utf8.RuneCountInString(text), len(words))
}

// CleanText replaces punctuation runs with a space and collapses whitespace.
func CleanText(text string) string {
	return strings.Join(strings.Fields(nonWordPattern.ReplaceAllString(text, " ")), " ")
}

// ToFullwidth maps printable ASCII (except space) to U+FF01..U+FF5E.
func ToFullwidth(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x21 && r <= 0x7E {
			return r + 0xFEE0
		}
		return r
	}, text)
}

// ToHalfwidth is the inverse of ToFullwidth.
func ToHalfwidth(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0xFF01 && r <= 0xFF5E {
			return r - 0xFEE0
		}
		return r
	}, text)
}
