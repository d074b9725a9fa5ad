package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/agent"
	"github.com/harun/toolplan/pkg/prompts"
	"github.com/harun/toolplan/pkg/toolexecutor"
)

// ToolHost lists and executes tools.
type ToolHost interface {
	Dispatcher
	ListTools(ctx context.Context) ([]toolexecutor.Descriptor, error)
}

// Config configures model calls made by the Planner.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompts     prompts.Set
}

// Planner asks a language model for a plan
type Planner struct {
	llm agent.LLMProvider
	cfg Config
}

// NewPlanner creates a new planner instance
func NewPlanner(llm agent.LLMProvider, cfg Config) *Planner {
	defaults := prompts.Default()
	if cfg.Prompts.Planner == "" {
		cfg.Prompts.Planner = defaults.Planner
	}
	if cfg.Prompts.Inline == "" {
		cfg.Prompts.Inline = defaults.Inline
	}
	return &Planner{llm: llm, cfg: cfg}
}

// GeneratePlan asks the model for a plan solving task with the given tools.
// An unusable reply yields a *PlanParseError; there is no re-prompt.
func (p *Planner) GeneratePlan(ctx context.Context, task string, tools []toolexecutor.Descriptor) (*Plan, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, errors.New("task cannot be empty")
	}

	prompt, err := p.cfg.Prompts.RenderPlanner(task, tools)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "planner", "plan.generate",
		attribute.Int("tools", len(tools)),
	)
	resp, err := p.llm.Call(ctx, agent.LLMRequest{
		Model:       p.cfg.Model,
		Messages:    []agent.Message{agent.UserMessage(prompt)},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)

	steps, err := ParsePlan(resp.Content)
	tracing.EndSpan(span, err)
	if err != nil {
		logger.Error().Err(err).Str("reply", resp.Content).Msg("Model reply is not a usable plan")
		return nil, err
	}

	plan := NewPlan(task, steps)
	plan.Raw = resp.Content

	logger.Info().
		Str("plan_id", plan.ID).
		Int("steps", len(steps)).
		Msg("Plan generated")

	return plan, nil
}

// Run fetches the catalog from host, generates a plan and executes it.
// The plan is returned even when execution is cancelled.
func (p *Planner) Run(ctx context.Context, task string, host ToolHost, exec *Executor) (*Plan, *RunResult, error) {
	tools, err := host.ListTools(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tools: %w", err)
	}

	plan, err := p.GeneratePlan(ctx, task, tools)
	if err != nil {
		return nil, nil, err
	}

	if exec == nil {
		exec = NewExecutor()
	}
	result, err := exec.Execute(ctx, plan, host)
	return plan, result, err
}
