package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

func catalog() []toolexecutor.Descriptor {
	return []toolexecutor.Descriptor{
		toolexecutor.NewDescriptor(&toolexecutor.ToolDefinition{
			Name:        "get_desktop_path",
			Description: "Return the desktop path",
		}),
		toolexecutor.NewDescriptor(&toolexecutor.ToolDefinition{
			Name:        "create_folder",
			Description: "Create a folder",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Required: true},
				{Name: "folder_name"},
			},
		}),
	}
}

func TestRenderPlanner(t *testing.T) {
	out, err := Default().RenderPlanner("make test123 on the desktop", catalog())
	require.NoError(t, err)

	assert.Contains(t, out, "- get_desktop_path(): Return the desktop path")
	assert.Contains(t, out, "- create_folder(path, folder_name): Create a folder")
	assert.Contains(t, out, `"${{get_desktop_path_result}}"`)
	assert.Contains(t, out, "make test123 on the desktop")
	assert.Contains(t, out, "Return only the JSON array of steps.")
}

func TestRenderInline(t *testing.T) {
	t.Run("without results", func(t *testing.T) {
		out, err := Default().RenderInline("task", catalog(), nil)
		require.NoError(t, err)
		assert.Contains(t, out, "<done>")
		assert.NotContains(t, out, "# Result 1")
		assert.Contains(t, out, "What is your next tool call?")
	})

	t.Run("numbers results from one", func(t *testing.T) {
		out, err := Default().RenderInline("task", catalog(), []string{"first", "second"})
		require.NoError(t, err)
		assert.Contains(t, out, "# Result 1 from previous tool:\nfirst")
		assert.Contains(t, out, "# Result 2 from previous tool:\nsecond")
	})
}

func TestRef(t *testing.T) {
	assert.Equal(t, "${{get_current_time_result}}", Ref("get_current_time"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays planner only", func(t *testing.T) {
		path := filepath.Join(dir, "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("planner: |\n  PLAN {{ .Task }}\n"), 0o644))

		set, err := LoadFile(path)
		require.NoError(t, err)

		out, err := set.RenderPlanner("x", nil)
		require.NoError(t, err)
		assert.Equal(t, "PLAN x\n", out)
		assert.Equal(t, Default().Inline, set.Inline)
	})

	t.Run("invalid template", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("inline: \"{{ .Task \"\n"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorContains(t, err, "invalid inline prompt template")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
