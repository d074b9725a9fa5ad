package planner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/internal/tracing"
)

// Dispatcher sends one tool call to wherever the tools live.
type Dispatcher interface {
	Execute(ctx context.Context, action string, params map[string]interface{}) (interface{}, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, action string, params map[string]interface{}) (interface{}, error)

// Execute calls f.
func (f DispatcherFunc) Execute(ctx context.Context, action string, params map[string]interface{}) (interface{}, error) {
	return f(ctx, action, params)
}

// StepHook observes each log entry as soon as it is written.
type StepHook func(entry ExecutionLogEntry)

// Executor runs plans step by step
type Executor struct {
	failureStrategy FailureStrategy
	stepKeys        bool
	hook            StepHook
}

// NewExecutor creates a new plan executor
func NewExecutor() *Executor {
	return &Executor{
		failureStrategy: FailContinue,
		stepKeys:        true,
	}
}

// SetFailureStrategy sets the failure handling strategy
func (e *Executor) SetFailureStrategy(strategy FailureStrategy) {
	e.failureStrategy = strategy
}

// SetStepKeys toggles recording of step{N}_result aliases.
func (e *Executor) SetStepKeys(enabled bool) {
	e.stepKeys = enabled
}

// SetStepHook installs a hook called after every log entry.
func (e *Executor) SetStepHook(hook StepHook) {
	e.hook = hook
}

// Execute runs every step of plan in order through d. The returned result
// always has one entry per step. The error is non-nil only when ctx is
// cancelled; the steps not yet started are then logged as skipped.
func (e *Executor) Execute(ctx context.Context, plan *Plan, d Dispatcher) (*RunResult, error) {
	if tracing.GetRunID(ctx) == "" {
		ctx = tracing.NewRunContext(ctx, "plan")
	}
	ctx, span := tracing.StartSpan(ctx, "planner", "plan.execute",
		attribute.String("plan_id", plan.ID),
		attribute.Int("steps", len(plan.Steps)),
	)
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	result := &RunResult{
		PlanID:    plan.ID,
		RunID:     tracing.GetRunID(ctx),
		Status:    RunStatusRunning,
		Entries:   make([]ExecutionLogEntry, 0, len(plan.Steps)),
		StartedAt: time.Now(),
	}
	store := NewContext()

	logger.Info().Str("plan_id", plan.ID).Int("steps", len(plan.Steps)).Msg("Executing plan")

	var runErr error
	aborted := false
	for i, step := range plan.Steps {
		n := i + 1

		if runErr == nil && ctx.Err() != nil {
			runErr = ctx.Err()
		}
		if runErr != nil || aborted {
			e.append(result, skippedEntry(n, step))
			continue
		}

		entry := e.runStep(ctx, n, step, store, d)
		e.append(result, entry)

		if entry.Status == StepStatusFailed && e.failureStrategy == FailAbort {
			logger.Warn().Int("step", n).Str("action", step.Action).Msg("Step failed, skipping remaining steps")
			aborted = true
		}
	}

	switch {
	case runErr != nil:
		result.Status = RunStatusCancelled
	case aborted:
		result.Status = RunStatusAborted
	default:
		result.Status = RunStatusComplete
	}
	result.FinishedAt = time.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)

	observability.RecordPlanRun(string(result.Status), duration)
	tracing.EndSpan(span, runErr)

	logger.Info().
		Str("plan_id", plan.ID).
		Str("status", string(result.Status)).
		Int("failed", result.Failed()).
		Dur("duration", duration).
		Msg("Plan finished")

	return result, runErr
}

func (e *Executor) runStep(ctx context.Context, n int, step Step, store *Context, d Dispatcher) ExecutionLogEntry {
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().Int("step", n).Str("action", step.Action).Logger()

	entry := ExecutionLogEntry{Step: n, Action: step.Action, Status: StepStatusResolving}
	params, unresolved := ResolveParams(step.Params, store)
	entry.Params = params
	entry.Unresolved = unresolved
	if len(unresolved) > 0 {
		logger.Warn().Strs("unresolved", unresolved).Msg("Step references results that do not exist")
	}

	entry.Status = StepStatusDispatching
	ctx, span := tracing.StartSpan(ctx, "planner", "plan.step",
		attribute.Int("step", n),
		attribute.String("action", step.Action),
	)
	start := time.Now()
	out, err := d.Execute(ctx, step.Action, params)
	duration := time.Since(start)
	tracing.EndSpan(span, err)

	if err != nil {
		entry.Status = StepStatusFailed
		entry.Result = "Error: " + err.Error()
		logger.Error().Err(err).Dur("duration", duration).Msg("Step failed")
	} else {
		entry.Status = StepStatusCompleted
		entry.Result = out
		logger.Debug().Dur("duration", duration).Msg("Step completed")
	}
	entry.DurationMS = duration.Milliseconds()

	if e.stepKeys {
		store.RecordStep(n, step.Action, entry.Result)
	} else {
		store.Record(step.Action, entry.Result)
	}
	observability.RecordStep(step.Action, string(entry.Status), duration)

	return entry
}

func (e *Executor) append(result *RunResult, entry ExecutionLogEntry) {
	result.Entries = append(result.Entries, entry)
	if e.hook != nil {
		e.hook(entry)
	}
}

func skippedEntry(n int, step Step) ExecutionLogEntry {
	params := make(map[string]interface{}, len(step.Params))
	for k, v := range step.Params {
		params[k] = v
	}
	return ExecutionLogEntry{Step: n, Action: step.Action, Params: params, Status: StepStatusSkipped}
}
