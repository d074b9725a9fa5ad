package planner

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	t.Run("fenced reply with trailing comma", func(t *testing.T) {
		steps, err := ParsePlan("```json\n[{\"action\":\"a\"},]\n```")
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "a", steps[0].Action)
		assert.Empty(t, steps[0].Params)
	})

	t.Run("desktop folder plan", func(t *testing.T) {
		raw := `[{"action":"get_desktop_path"}, {"action":"create_folder","params":{"path":"${{get_desktop_path_result}}","folder_name":"test123"}}]`
		steps, err := ParsePlan(raw)
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, "create_folder", steps[1].Action)
		assert.Equal(t, "${{get_desktop_path_result}}", steps[1].Params["path"])
		assert.Equal(t, "test123", steps[1].Params["folder_name"])
	})

	t.Run("numbers keep their text", func(t *testing.T) {
		steps, err := ParsePlan(`[{"action":"port_scan","params":{"host":"localhost","start":20,"ratio":0.5}}]`)
		require.NoError(t, err)
		assert.Equal(t, json.Number("20"), steps[0].Params["start"])
		assert.Equal(t, json.Number("0.5"), steps[0].Params["ratio"])
	})

	t.Run("prose and single brace references", func(t *testing.T) {
		raw := "Sure! Here is the plan:\n[{\"action\":\"get_desktop_path\"},{\"action\":\"list_files\",\"params\":{\"path\":\"${get_desktop_path_result}\"}}]\nLet me know."
		steps, err := ParsePlan(raw)
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, "${{get_desktop_path_result}}", steps[1].Params["path"])
	})

	t.Run("steps wrapper", func(t *testing.T) {
		steps, err := ParsePlan(`{"steps":[{"action":"a"},{"action":"b"}]}`)
		require.NoError(t, err)
		assert.Len(t, steps, 2)
	})

	t.Run("single step object", func(t *testing.T) {
		steps, err := ParsePlan(`{"action":"get_hostname","params":{}}`)
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "get_hostname", steps[0].Action)
	})

	t.Run("single quoted keys fall back to generic repair", func(t *testing.T) {
		steps, err := ParsePlan(`[{'action': 'get_current_time'}]`)
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "get_current_time", steps[0].Action)
	})
}

func TestParsePlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"refusal", "I cannot help with that."},
		{"missing action", `[{"params":{"a":"b"}}]`},
		{"empty action", `[{"action":""}]`},
		{"params not object", `[{"action":"a","params":"x"}]`},
		{"array of strings", `["a","b"]`},
		{"empty", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.raw)
			require.Error(t, err)

			var parseErr *PlanParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, err.Error(), "plan parse error")
		})
	}

	t.Run("empty plan", func(t *testing.T) {
		_, err := ParsePlan("[]")
		assert.ErrorIs(t, err, ErrEmptyPlan)
	})

	t.Run("carries post-repair text", func(t *testing.T) {
		_, err := ParsePlan("```json\n[{\"params\":{}},]\n```")
		var parseErr *PlanParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, `[{"params":{}}]`, parseErr.Text)
	})
}

func TestLoadPlanFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("wrapper keeps id and task", func(t *testing.T) {
		path := filepath.Join(dir, "plan.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":"p1","task":"demo","steps":[{"action":"get_hostname"}]}`), 0o644))

		plan, err := LoadPlanFile(path)
		require.NoError(t, err)
		assert.Equal(t, "p1", plan.ID)
		assert.Equal(t, "demo", plan.Task)
		assert.Len(t, plan.Steps, 1)
	})

	t.Run("bare array gets an id", func(t *testing.T) {
		path := filepath.Join(dir, "steps.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"action":"a"},{"action":"b"}]`), 0o644))

		plan, err := LoadPlanFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, plan.ID)
		assert.Len(t, plan.Steps, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPlanFile(filepath.Join(dir, "none.json"))
		assert.Error(t, err)
	})
}

func TestParseFailureStrategy(t *testing.T) {
	s, err := ParseFailureStrategy("")
	require.NoError(t, err)
	assert.Equal(t, FailContinue, s)

	s, err = ParseFailureStrategy("Abort")
	require.NoError(t, err)
	assert.Equal(t, FailAbort, s)

	_, err = ParseFailureStrategy("retry")
	assert.Error(t, err)
}
