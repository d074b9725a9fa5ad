package planner

import (
	"fmt"
	"strings"
	"time"
)

// Plan represents a model-authored execution plan
type Plan struct {
	ID        string    `json:"id"`
	Task      string    `json:"task,omitempty"`
	Steps     []Step    `json:"steps"`
	Raw       string    `json:"raw,omitempty"` // model reply the plan was parsed from
	CreatedAt time.Time `json:"created_at"`
}

// Step represents a single tool invocation request
type Step struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// StepStatus represents the execution status of a step
type StepStatus string

const (
	StepStatusPending     StepStatus = "pending"
	StepStatusResolving   StepStatus = "resolving"
	StepStatusDispatching StepStatus = "dispatching"
	StepStatusCompleted   StepStatus = "completed"
	StepStatusFailed      StepStatus = "failed"
	StepStatusSkipped     StepStatus = "skipped"
)

// RunStatus represents the state of a whole plan run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusCancelled RunStatus = "cancelled"
)

// ExecutionLogEntry records one attempted step.
type ExecutionLogEntry struct {
	Step       int                    `json:"step"` // 1-based
	Action     string                 `json:"action"`
	Params     map[string]interface{} `json:"params"`
	Result     interface{}            `json:"result"`
	Status     StepStatus             `json:"status"`
	Unresolved []string               `json:"unresolved,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// RunResult is the outcome of executing a plan. Entries has exactly one
// entry per plan step, in plan order.
type RunResult struct {
	PlanID     string              `json:"plan_id"`
	RunID      string              `json:"run_id"`
	Status     RunStatus           `json:"status"`
	Entries    []ExecutionLogEntry `json:"entries"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Failed returns the number of failed steps.
func (r *RunResult) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == StepStatusFailed {
			n++
		}
	}
	return n
}

// FailureStrategy defines how to handle step failures
type FailureStrategy string

const (
	FailAbort    FailureStrategy = "abort"    // Skip remaining steps after the first failure
	FailContinue FailureStrategy = "continue" // Record the error and continue with remaining steps
)

// ParseFailureStrategy parses a configured policy name. Empty means FailContinue.
func ParseFailureStrategy(s string) (FailureStrategy, error) {
	switch FailureStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailContinue:
		return FailContinue, nil
	case FailAbort:
		return FailAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy: %q", s)
	}
}
