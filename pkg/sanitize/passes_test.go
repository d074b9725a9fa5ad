package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripReasoning(t *testing.T) {
	assert.Equal(t, `[{"action":"a"}]`, StripReasoning("<think>use [{x}]\nok</think>\n[{\"action\":\"a\"}]"))
	assert.Equal(t, "plain", StripReasoning("plain"))
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"json fence", "```json\n[1]\n```", "[1]\n"},
		{"bare fence with prose", "text\n```\n[2]\n```\nmore", "[2]\n"},
		{"unterminated", "```json\n[3]", "[3]"},
		{"no fence", "[4]", "[4]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestStripFStringPrefix(t *testing.T) {
	assert.Equal(t, `{"path": "${{a}}/x"}`, StripFStringPrefix(`{"path": f"${{a}}/x"}`))
	assert.Equal(t, `{'path': 'x'}`, StripFStringPrefix(`{'path': f'x'}`))
	assert.Equal(t, `["a", "b"]`, StripFStringPrefix(`[f"a", f"b"]`))
	// string contents are never touched
	assert.Equal(t, `{"ext": "pdf", "note": "if f"}`, StripFStringPrefix(`{"ext": "pdf", "note": "if f"}`))
}

func TestNormalizeReferences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"single brace", `"${a}"`, `"${{a}}"`},
		{"canonical untouched", `"${{a}}"`, `"${{a}}"`},
		{"truncated before slash", `"${{a}/log.txt"`, `"${{a}}/log.txt"`},
		{"truncated before underscore", `"${{a}_backup"`, `"${{a}}_backup"`},
		{"truncated at end", `"${{a}`, `"${{a}}`},
		{"two refs", `"${a}/${{b}/c"`, `"${{a}}/${{b}}/c"`},
		{"missing quote before next key", `{"path": "${{a}, "name": "x"}`, `{"path": "${{a}}", "name": "x"}`},
		{"missing quote before brace", `{"path": "${{a}}}`, `{"path": "${{a}}"}`},
		{"unquoted value", `{"path": ${{a}}/log.txt}`, `{"path": "${{a}}/log.txt"}`},
		{"comma inside value kept", `{"p": "${{a}},${{b}}"}`, `{"p": "${{a}},${{b}}"}`},
		{"no refs", `{"p": "plain"}`, `{"p": "plain"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeReferences(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeReferences(got))
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"surrounded by prose", `Plan: [{"action":"a"}] enjoy`, `[{"action":"a"}]`},
		{"nested brackets and strings", `x [{"action":"a","params":{"l":"[1]]"}},{"action":"b"}] y`, `[{"action":"a","params":{"l":"[1]]"}},{"action":"b"}]`},
		{"spaced", "ok:\n[\n  {\"action\":\"a\"}\n]\nbye", "[\n  {\"action\":\"a\"}\n]"},
		{"truncated", `x [{"action":"a"}`, `[{"action":"a"}`},
		{"bracket in line comment", "[{\"action\":\"a\"}, // list ] ends here\n{\"action\":\"b\"}] done", "[{\"action\":\"a\"}, // list ] ends here\n{\"action\":\"b\"}]"},
		{"bracket in block comment", `[{"action":"a"} /* ] */, {"action":"b"}] done`, `[{"action":"a"} /* ] */, {"action":"b"}]`},
		{"no array", `{"action":"a"}`, `{"action":"a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractArray(tt.in))
		})
	}
}

func TestStripComments(t *testing.T) {
	in := "[\n  {\"action\": \"a\"}, // first\n  /* block */ {\"action\": \"http_get\", \"params\": {\"url\": \"http://x.com/a//b\"}}\n]"
	want := "[\n  {\"action\": \"a\"},\n   {\"action\": \"http_get\", \"params\": {\"url\": \"http://x.com/a//b\"}}\n]"
	assert.Equal(t, want, StripComments(in))

	assert.Equal(t, "[1]", StripComments("[1] // done"))
	assert.Equal(t, "[1]", StripComments("[1] /* unterminated"))
}

func TestStripTrailingCommas(t *testing.T) {
	assert.Equal(t, `[{"a":"1"}]`, StripTrailingCommas(`[{"a":"1",},]`))
	assert.Equal(t, "[\n {\"a\":\"1\"}\n]", StripTrailingCommas("[\n {\"a\":\"1\"},\n]"))
	assert.Equal(t, `[{"t":"x, }"}]`, StripTrailingCommas(`[{"t":"x, }"},]`))
}
