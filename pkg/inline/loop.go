package inline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/agent"
	"github.com/harun/toolplan/pkg/planner"
	"github.com/harun/toolplan/pkg/prompts"
)

const (
	DefaultMaxFormatErrors = 5
	DefaultMaxToolCalls    = 10
)

// Config configures an inline Loop.
type Config struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	MaxFormatErrors int
	MaxToolCalls    int
	Prompts         prompts.Set
}

// Turn is one model reply and what the loop did with it.
type Turn struct {
	N      int                    `json:"turn"`
	Reply  string                 `json:"reply"`
	Kind   ReplyKind              `json:"kind"`
	Call   string                 `json:"call,omitempty"`
	Tool   string                 `json:"tool,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
	Result interface{}            `json:"result,omitempty"`
	Failed bool                   `json:"failed,omitempty"`
	Reason string                 `json:"reason,omitempty"`
}

// Result summarizes a run. Results is the ordered context list shown to the
// model on each turn.
type Result struct {
	RunID        string   `json:"run_id"`
	Done         bool     `json:"done"`
	Calls        int      `json:"calls"`
	FormatErrors int      `json:"format_errors"`
	Results      []string `json:"results"`
	Transcript   []Turn   `json:"transcript"`
}

// TurnHook observes each turn as soon as it completes.
type TurnHook func(turn Turn)

// Loop drives the inline protocol against a model and a tool host.
type Loop struct {
	llm  agent.LLMProvider
	host planner.ToolHost
	cfg  Config
	hook TurnHook
}

// NewLoop creates a loop. Non-positive budgets fall back to the defaults.
func NewLoop(llm agent.LLMProvider, host planner.ToolHost, cfg Config) *Loop {
	if cfg.MaxFormatErrors <= 0 {
		cfg.MaxFormatErrors = DefaultMaxFormatErrors
	}
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
	if cfg.Prompts.Inline == "" {
		cfg.Prompts.Inline = prompts.Default().Inline
	}
	return &Loop{llm: llm, host: host, cfg: cfg}
}

// SetTurnHook installs a hook called after every turn.
func (l *Loop) SetTurnHook(hook TurnHook) {
	l.hook = hook
}

// Run solves task one tool call per turn. It returns a nil error when the
// model answers <done>; *RetryLimitExceeded when a budget runs out; or the
// model, catalog or context error that stopped it. The partial Result is
// returned in every case.
func (l *Loop) Run(ctx context.Context, task string) (*Result, error) {
	if tracing.GetRunID(ctx) == "" {
		ctx = tracing.NewRunContext(ctx, "inline")
	}
	ctx, span := tracing.StartSpan(ctx, "inline", "inline.run")
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()

	result := &Result{RunID: tracing.GetRunID(ctx)}
	err := l.run(ctx, task, result)

	outcome := "done"
	var limit *RetryLimitExceeded
	switch {
	case err == nil:
	case errors.As(err, &limit):
		outcome = limit.Budget
	case ctx.Err() != nil:
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	observability.RecordInlineRun(outcome)
	tracing.EndSpan(span, err)

	logger.Info().
		Str("outcome", outcome).
		Int("calls", result.Calls).
		Int("format_errors", result.FormatErrors).
		Dur("duration", time.Since(start)).
		Msg("Inline run finished")

	return result, err
}

func (l *Loop) run(ctx context.Context, task string, result *Result) error {
	tools, err := l.host.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	var lastFormatErr error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt, err := l.cfg.Prompts.RenderInline(task, tools, result.Results)
		if err != nil {
			return err
		}

		resp, err := l.llm.Call(ctx, agent.LLMRequest{
			Model:       l.cfg.Model,
			Messages:    []agent.Message{agent.UserMessage(prompt)},
			Temperature: l.cfg.Temperature,
			MaxTokens:   l.cfg.MaxTokens,
		})
		if err != nil {
			return fmt.Errorf("turn %d: %w", n, err)
		}

		reply := ParseReply(resp.Content)
		turn := Turn{N: n, Reply: reply.Text, Kind: reply.Kind}
		observability.RecordInlineTurn(string(reply.Kind))

		switch reply.Kind {
		case ReplyDone:
			result.Done = true
			l.record(result, turn)
			return nil

		case ReplyFormatError:
			result.FormatErrors++
			turn.Reason = reply.Reason
			l.record(result, turn)
			lastFormatErr = &ProtocolFormatError{Reply: reply.Text, Reason: reply.Reason}
			logger.Debug().Int("turn", n).Str("reason", reply.Reason).Msg("Reply rejected")

			if result.FormatErrors >= l.cfg.MaxFormatErrors {
				return &RetryLimitExceeded{
					Budget:       BudgetFormatErrors,
					Limit:        l.cfg.MaxFormatErrors,
					Calls:        result.Calls,
					FormatErrors: result.FormatErrors,
					Last:         lastFormatErr,
				}
			}

		case ReplyToolCall:
			turn.Call = reply.Call.String()
			turn.Tool = reply.Call.Tool
			turn.Params = reply.Call.Params()
			if result.Calls >= l.cfg.MaxToolCalls {
				turn.Reason = "tool call budget exhausted"
				l.record(result, turn)
				return &RetryLimitExceeded{
					Budget:       BudgetToolCalls,
					Limit:        l.cfg.MaxToolCalls,
					Calls:        result.Calls,
					FormatErrors: result.FormatErrors,
					Last:         lastFormatErr,
				}
			}

			out, failed := l.dispatch(ctx, n, reply.Call)
			result.Calls++
			turn.Result = out
			turn.Failed = failed
			result.Results = append(result.Results, formatResult(reply.Call, out))
			l.record(result, turn)
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, n int, call *Call) (interface{}, bool) {
	ctx, span := tracing.StartSpan(ctx, "inline", "inline.call",
		attribute.Int("turn", n),
		attribute.String("tool", call.Tool),
	)
	out, err := l.host.Execute(ctx, call.Tool, call.Params())
	tracing.EndSpan(span, err)

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	if err != nil {
		logger.Warn().Err(err).Int("turn", n).Str("tool", call.Tool).Msg("Tool call failed")
		return "Error: " + err.Error(), true
	}
	logger.Debug().Int("turn", n).Str("tool", call.Tool).Msg("Tool call completed")
	return out, false
}

func (l *Loop) record(result *Result, turn Turn) {
	result.Transcript = append(result.Transcript, turn)
	if l.hook != nil {
		l.hook(turn)
	}
}

func formatResult(call *Call, out interface{}) string {
	var b strings.Builder
	b.WriteString("Tool: ")
	b.WriteString(call.String())
	b.WriteString("\nResult: ")
	b.WriteString(planner.Stringify(out))
	return b.String()
}
