package runstore

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harun/toolplan/pkg/inline"
	"github.com/harun/toolplan/pkg/planner"
)

// FromPlan converts a plan execution into a storable run. res may be nil
// when planning failed before execution; err is the error the run ended with.
func FromPlan(task string, res *planner.RunResult, err error) Run {
	run := Run{
		ID:        uuid.New().String(),
		Mode:      ModePlan,
		Task:      task,
		Status:    "failed",
		CreatedAt: time.Now(),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if res == nil {
		return run
	}

	if res.RunID != "" {
		run.ID = res.RunID
	}
	if !res.StartedAt.IsZero() {
		run.CreatedAt = res.StartedAt
	}
	run.Status = string(res.Status)
	for _, e := range res.Entries {
		run.Entries = append(run.Entries, Entry{
			Step:   e.Step,
			Action: e.Action,
			Params: e.Params,
			Result: e.Result,
			Status: string(e.Status),
		})
	}
	return run
}

// FromInline converts an inline run. Each turn becomes one entry; format
// errors are kept so the history shows what the model actually replied.
func FromInline(task string, res *inline.Result, err error) Run {
	run := Run{
		ID:        uuid.New().String(),
		Mode:      ModeInline,
		Task:      task,
		CreatedAt: time.Now(),
	}

	var limit *inline.RetryLimitExceeded
	switch {
	case err == nil && res != nil && res.Done:
		run.Status = "done"
	case errors.As(err, &limit):
		run.Status = "retry_limit_exceeded"
	default:
		run.Status = "failed"
	}
	if err != nil {
		run.Error = err.Error()
	}
	if res == nil {
		return run
	}

	if res.RunID != "" {
		run.ID = res.RunID
	}
	for _, t := range res.Transcript {
		e := Entry{Step: t.N, Action: t.Tool, Params: t.Params, Status: string(t.Kind)}
		switch t.Kind {
		case inline.ReplyToolCall:
			e.Result = t.Result
			if t.Failed {
				e.Status = "failed"
			}
			if t.Reason != "" {
				e.Result = t.Reason
				e.Status = "skipped"
			}
		case inline.ReplyFormatError:
			e.Result = t.Reason
		}
		run.Entries = append(run.Entries, e)
	}
	return run
}
