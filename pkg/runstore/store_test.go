package runstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/pkg/inline"
	"github.com/harun/toolplan/pkg/planner"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DBPath: filepath.Join(t.TempDir(), "nested", "runs.db"), Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSaveAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := Run{
		ID:        "run-1",
		Mode:      ModePlan,
		Task:      "create a folder",
		Status:    "complete",
		CreatedAt: time.UnixMilli(1700000000000),
		Entries: []Entry{
			{Step: 1, Action: "get_desktop_path", Result: "/home/user/Desktop", Status: "completed"},
			{Step: 2, Action: "create_folder", Params: map[string]interface{}{"path": "/home/user/Desktop", "folder_name": "test123"}, Result: "Error: disk full", Status: "failed"},
		},
	}
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "create a folder", got.Task)
	assert.Equal(t, run.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "/home/user/Desktop", got.Entries[0].Result)
	assert.Nil(t, got.Entries[0].Params)
	assert.Equal(t, "test123", got.Entries[1].Params["folder_name"])
	assert.Equal(t, "failed", got.Entries[1].Status)

	assert.Error(t, s.Save(ctx, run), "duplicate id")
	assert.Error(t, s.Save(ctx, Run{}), "missing id")
}

func TestGetNotFound(t *testing.T) {
	_, err := newStore(t).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, Run{
			ID:        id,
			Mode:      ModeInline,
			Task:      "task " + id,
			Status:    "done",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Empty(t, runs[0].Entries)

	runs, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestFromPlan(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	res := &planner.RunResult{
		RunID:     "r1",
		Status:    planner.RunStatusAborted,
		StartedAt: started,
		Entries: []planner.ExecutionLogEntry{
			{Step: 1, Action: "a", Result: "Error: boom", Status: planner.StepStatusFailed},
			{Step: 2, Action: "b", Status: planner.StepStatusSkipped},
		},
	}

	run := FromPlan("task", res, nil)
	assert.Equal(t, "r1", run.ID)
	assert.Equal(t, ModePlan, run.Mode)
	assert.Equal(t, "aborted", run.Status)
	assert.Equal(t, started, run.CreatedAt)
	require.Len(t, run.Entries, 2)
	assert.Equal(t, "skipped", run.Entries[1].Status)

	failed := FromPlan("task", nil, errors.New("plan parse error"))
	assert.NotEmpty(t, failed.ID)
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "plan parse error", failed.Error)
}

func TestFromInline(t *testing.T) {
	res := &inline.Result{
		RunID: "i1",
		Done:  true,
		Transcript: []inline.Turn{
			{N: 1, Kind: inline.ReplyFormatError, Reply: "hello", Reason: "no tool tag"},
			{N: 2, Kind: inline.ReplyToolCall, Tool: "get_hostname", Result: "box"},
			{N: 3, Kind: inline.ReplyToolCall, Tool: "read_text_file", Params: map[string]interface{}{"path": "x"}, Result: "Error: missing", Failed: true},
			{N: 4, Kind: inline.ReplyDone},
		},
	}

	run := FromInline("task", res, nil)
	assert.Equal(t, "i1", run.ID)
	assert.Equal(t, "done", run.Status)
	require.Len(t, run.Entries, 4)
	assert.Equal(t, "no tool tag", run.Entries[0].Result)
	assert.Equal(t, "format_error", run.Entries[0].Status)
	assert.Equal(t, "tool_call", run.Entries[1].Status)
	assert.Equal(t, "failed", run.Entries[2].Status)
	assert.Equal(t, "done", run.Entries[3].Status)

	limited := FromInline("task", &inline.Result{}, &inline.RetryLimitExceeded{Budget: inline.BudgetToolCalls, Limit: 10})
	assert.Equal(t, "retry_limit_exceeded", limited.Status)
	assert.NotEmpty(t, limited.Error)
}

func TestRoundTripFromInline(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run := FromInline("task", &inline.Result{
		RunID: "i2",
		Done:  true,
		Transcript: []inline.Turn{
			{N: 1, Kind: inline.ReplyToolCall, Tool: "count", Result: float64(3)},
			{N: 2, Kind: inline.ReplyDone},
		},
	}, nil)
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, float64(3), got.Entries[0].Result)
	assert.Equal(t, "", got.Entries[1].Action)
}
