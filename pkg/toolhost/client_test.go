package toolhost

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/pkg/planner"
	"github.com/harun/toolplan/pkg/toolexecutor"
)

func startHost(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(createTestServer(t, ServerOptions{}).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestClientListTools(t *testing.T) {
	c := startHost(t)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 5)

	var createFolder toolexecutor.Descriptor
	for _, d := range tools {
		if d.Name == "create_folder" {
			createFolder = d
		}
	}
	assert.Equal(t, []string{"path", "folder_name"}, createFolder.ParameterNames())
}

func TestClientExecute(t *testing.T) {
	c := startHost(t)
	ctx := context.Background()

	t.Run("string result", func(t *testing.T) {
		out, err := c.Execute(ctx, "echo", map[string]interface{}{"text": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("number result", func(t *testing.T) {
		out, err := c.Execute(ctx, "count", nil)
		require.NoError(t, err)
		assert.Equal(t, float64(3), out)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := c.Execute(ctx, "nope", nil)
		require.Error(t, err)
		assert.True(t, toolexecutor.IsNotFound(err))
		assert.Equal(t, "tool not found: nope", err.Error())
	})

	t.Run("tool failure", func(t *testing.T) {
		_, err := c.Execute(ctx, "boom", nil)

		var execErr *toolexecutor.ToolExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, "boom", execErr.Tool)
		assert.Equal(t, "disk full", execErr.Message)

		var remote *RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, http.StatusInternalServerError, remote.Status)
	})
}

func TestClientUnexpectedReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/execute":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"detail":"upstream"}`))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.Execute(ctx, "echo", nil)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Equal(t, "maintenance", remote.Detail)

	_, err = c.ListTools(ctx)
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "upstream", remote.Detail)

	_, err = c.Health(ctx)
	assert.Error(t, err)
}

func TestClientHealth(t *testing.T) {
	h, err := startHost(t).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 5, h.Tools)
	assert.Equal(t, map[string]int{"general": 5}, h.Categories)
}

func TestClientListToolsInCategory(t *testing.T) {
	c := startHost(t)

	tools, err := c.ListToolsInCategory(context.Background(), "general")
	require.NoError(t, err)
	assert.Len(t, tools, 5)

	tools, err = c.ListToolsInCategory(context.Background(), "math")
	require.NoError(t, err)
	assert.Empty(t, tools)

	_, err = c.ListToolsInCategory(context.Background(), "weather")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.Status)
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Execute(context.Background(), "echo", nil)
	assert.ErrorContains(t, err, "tool host request failed")
}

func TestPlanOverHTTP(t *testing.T) {
	c := startHost(t)
	plan := planner.NewPlan("create test123 on the desktop", []planner.Step{
		{Action: "get_desktop_path"},
		{Action: "create_folder", Params: map[string]interface{}{
			"path":        "${{get_desktop_path_result}}",
			"folder_name": "test123",
		}},
		{Action: "missing_tool"},
		{Action: "echo", Params: map[string]interface{}{"text": "${{create_folder_result}}"}},
	})

	result, err := planner.NewExecutor().Execute(context.Background(), plan, c)
	require.NoError(t, err)
	require.Len(t, result.Entries, 4)

	assert.Equal(t, "/home/user/Desktop", result.Entries[1].Params["path"])
	assert.Equal(t, "Folder created: /home/user/Desktop/test123", result.Entries[1].Result)
	assert.Equal(t, planner.StepStatusFailed, result.Entries[2].Status)
	assert.Equal(t, "Error: tool not found: missing_tool", result.Entries[2].Result)
	assert.Equal(t, "Folder created: /home/user/Desktop/test123", result.Entries[3].Result)
}

func TestLocalDispatcher(t *testing.T) {
	d := NewLocalDispatcher(testRegistry(t))
	ctx := context.Background()

	tools, err := d.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 5)

	out, err := d.Execute(ctx, "echo", map[string]interface{}{"text": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	_, err = d.Execute(ctx, "nope", nil)
	assert.True(t, toolexecutor.IsNotFound(err))
}
