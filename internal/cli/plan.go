package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/planner"
	"github.com/harun/toolplan/pkg/runstore"
)

var (
	planFile      string
	planSave      string
	planFailFast  bool
	planNoHistory bool
)

var planCmd = &cobra.Command{
	Use:   "plan [task]",
	Short: "Plan a task with the model and execute every step",
	Long: `Ask the model for a complete plan, then execute its steps in order against
the tool host. Later steps may reference earlier results as ${{action_result}}
or ${{stepN_result}}. The execution log is printed as JSON.

With --plan-file a saved plan is executed without calling the model.`,
	Example: `  toolplan plan "create a folder named report on the desktop"
  toolplan plan --plan-file plan.json --fail-fast`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFile, "plan-file", "", "execute a saved plan instead of asking the model")
	planCmd.Flags().StringVar(&planSave, "save-plan", "", "write the generated plan to this file")
	planCmd.Flags().BoolVar(&planFailFast, "fail-fast", false, "skip remaining steps after the first failure")
	planCmd.Flags().BoolVar(&planNoHistory, "no-history", false, "do not store this run in the history")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	task := ""
	if len(args) > 0 {
		task = strings.TrimSpace(args[0])
	}
	if task == "" && planFile == "" {
		return errors.New("a task or --plan-file is required")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	policy := e.cfg.Executor.FailurePolicy
	if planFailFast {
		policy = string(planner.FailAbort)
	}
	strategy, err := planner.ParseFailureStrategy(policy)
	if err != nil {
		return err
	}

	exec := planner.NewExecutor()
	exec.SetFailureStrategy(strategy)
	exec.SetStepKeys(e.cfg.Executor.StepKeys)
	exec.SetStepHook(func(entry planner.ExecutionLogEntry) {
		log.Info().
			Int("step", entry.Step).
			Str("action", entry.Action).
			Str("status", string(entry.Status)).
			Msg("Step finished")
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx = tracing.NewRunContext(ctx, "plan")

	host := e.client()

	var (
		plan   *planner.Plan
		result *planner.RunResult
		runErr error
	)
	if planFile != "" {
		plan, runErr = planner.LoadPlanFile(planFile)
		if runErr == nil {
			if task == "" {
				task = plan.Task
			}
			result, runErr = exec.Execute(ctx, plan, host)
		}
	} else {
		llm, err := e.provider(ctx)
		if err != nil {
			return fmt.Errorf("failed to create model provider: %w", err)
		}
		set, err := e.prompts()
		if err != nil {
			return err
		}
		p := planner.NewPlanner(llm, planner.Config{
			Model:       e.cfg.Model.Model,
			Temperature: e.cfg.Model.Temperature,
			MaxTokens:   e.cfg.Model.MaxTokens,
			Prompts:     set,
		})
		plan, result, runErr = p.Run(ctx, task, host, exec)
	}

	e.record(ctx, runstore.FromPlan(task, result, runErr), !planNoHistory)

	var parseErr *planner.PlanParseError
	if errors.As(runErr, &parseErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Plan text after repair:\n%s\n", parseErr.Text)
	}

	if plan != nil && planSave != "" {
		if err := savePlan(planSave, plan); err != nil {
			log.Warn().Err(err).Str("path", planSave).Msg("Failed to save plan")
		}
	}

	if result != nil {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	return runErr
}

// savePlan writes plan in a form LoadPlanFile reads back.
func savePlan(path string, plan *planner.Plan) error {
	data, err := json.MarshalIndent(struct {
		ID    string         `json:"id"`
		Task  string         `json:"task,omitempty"`
		Steps []planner.Step `json:"steps"`
	}{plan.ID, plan.Task, plan.Steps}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
