package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_FencedTrailingComma(t *testing.T) {
	raw := "```json\n[{\"action\":\"a\"},]\n```"

	res := DefaultPipeline().Sanitize(raw)
	assert.Equal(t, `[{"action":"a"}]`, res.Text)
	assert.Contains(t, res.Applied, "strip_code_fences")
	assert.Contains(t, res.Applied, "strip_trailing_commas")
	assert.True(t, json.Valid([]byte(res.Text)))
}

func TestSanitize_ValidJSONIsUntouched(t *testing.T) {
	inputs := []string{
		`[{"action":"get_desktop_path"}]`,
		"  [\n  {\"action\": \"http_get\", \"params\": {\"url\": \"http://example.com//x\"}}\n]\n",
		`[{"action":"create_folder","params":{"path":"${get_desktop_path_result}","folder_name":"f"}}]`,
		`[{"action":"write_text_file","params":{"path":"${{a}},${{b}}","content":"pdf, }"}}]`,
	}

	for _, in := range inputs {
		res := DefaultPipeline().Sanitize(in)
		assert.Equal(t, in, res.Text)
		assert.Empty(t, res.Applied)
	}
}

func TestSanitize_NoisyReply(t *testing.T) {
	raw := "<think>I need the desktop [{first}] then a folder</think>\n" +
		"Here you go:\n" +
		"```json\n" +
		"[\n" +
		"  {\"action\": \"get_desktop_path\"},\n" +
		"  {\"action\": \"create_folder\", \"params\": {\"path\": \"${get_desktop_path_result}\", \"folder_name\": \"logs\",}}, // make dir\n" +
		"  {\"action\": \"write_text_file\", \"params\": {\"path\": \"${{create_folder_result}/log.txt\", \"content\": \"see http://x.io\"}},\n" +
		"]\n" +
		"```\n" +
		"Let me know if you need anything else."

	out := Sanitize(raw)

	var steps []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &steps), out)
	require.Len(t, steps, 3)
	assert.Equal(t, "get_desktop_path", steps[0]["action"])

	p1 := steps[1]["params"].(map[string]interface{})
	assert.Equal(t, "${{get_desktop_path_result}}", p1["path"])
	assert.Equal(t, "logs", p1["folder_name"])

	p2 := steps[2]["params"].(map[string]interface{})
	assert.Equal(t, "${{create_folder_result}}/log.txt", p2["path"])
	assert.Equal(t, "see http://x.io", p2["content"])
}

func TestSanitize_CommentWithBracket(t *testing.T) {
	raw := "Plan:\n[\n  {\"action\": \"get_desktop_path\"}, // step one ] of two\n  {\"action\": \"get_current_time\"}\n]\nThanks"

	var steps []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(Sanitize(raw)), &steps))
	require.Len(t, steps, 2)
	assert.Equal(t, "get_current_time", steps[1]["action"])
}

func TestSanitize_Idempotent(t *testing.T) {
	fixtures := []string{
		"```json\n[{\"action\":\"a\"},]\n```",
		"Sure! [{\"action\":\"b\", \"params\": {\"p\": \"${x}\"}}] done",
		"[{\"action\": \"c\", \"params\": {\"path\": ${{x}}/y}}]",
		"[{\"action\": \"d\", \"params\": {\"path\": \"${{x}, \"n\": \"1\"}}]",
		"```\n[{\"action\": \"e\"} // trailing\n]",
		"<think>hmm</think>[{'action': 'f'}]",
		"no plan here at all",
	}

	p := DefaultPipeline()
	for _, in := range fixtures {
		once := p.Sanitize(in).Text
		twice := p.Sanitize(once).Text
		assert.Equal(t, once, twice, "input: %q", in)
	}
}

func TestRepair(t *testing.T) {
	out, err := Repair(`[{'action': 'a', params: {'x': '1'}}]`)
	require.NoError(t, err)

	var steps []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "a", steps[0]["action"])
}

func TestCustomPipeline(t *testing.T) {
	p := NewPipeline(Pass{Name: "trim_space", Apply: TrimSpace})
	res := p.Sanitize("  not json  ")
	assert.Equal(t, "not json", res.Text)
	assert.Equal(t, []string{"trim_space"}, res.Applied)
}
