package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/inline"
	"github.com/harun/toolplan/pkg/planner"
	"github.com/harun/toolplan/pkg/runstore"
)

var (
	inlineMaxFormatErrors int
	inlineMaxToolCalls    int
	inlineJSON            bool
	inlineNoHistory       bool
)

var inlineCmd = &cobra.Command{
	Use:   "inline <task>",
	Short: "Solve a task one tool call per model turn",
	Long: `Run the inline protocol: each turn the model answers either <done> or a
single <tool>name(key="value")</tool> call, sees the accumulated results and
decides the next step. The run ends on <done> or when the format-error or
tool-call budget is used up.`,
	Args: cobra.ExactArgs(1),
	RunE: runInline,
}

func init() {
	inlineCmd.Flags().IntVar(&inlineMaxFormatErrors, "max-format-errors", 0, "malformed replies tolerated, overrides the config file")
	inlineCmd.Flags().IntVar(&inlineMaxToolCalls, "max-tool-calls", 0, "tool calls allowed, overrides the config file")
	inlineCmd.Flags().BoolVar(&inlineJSON, "json", false, "print the run result as JSON instead of a transcript")
	inlineCmd.Flags().BoolVar(&inlineNoHistory, "no-history", false, "do not store this run in the history")
	rootCmd.AddCommand(inlineCmd)
}

func runInline(cmd *cobra.Command, args []string) error {
	task := strings.TrimSpace(args[0])
	if task == "" {
		return errors.New("task cannot be empty")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx = tracing.NewRunContext(ctx, "inline")

	llm, err := e.provider(ctx)
	if err != nil {
		return fmt.Errorf("failed to create model provider: %w", err)
	}
	set, err := e.prompts()
	if err != nil {
		return err
	}

	cfg := inline.Config{
		Model:           e.cfg.Model.Model,
		Temperature:     e.cfg.Model.Temperature,
		MaxTokens:       e.cfg.Model.MaxTokens,
		MaxFormatErrors: e.cfg.Inline.MaxFormatErrors,
		MaxToolCalls:    e.cfg.Inline.MaxToolCalls,
		Prompts:         set,
	}
	if inlineMaxFormatErrors > 0 {
		cfg.MaxFormatErrors = inlineMaxFormatErrors
	}
	if inlineMaxToolCalls > 0 {
		cfg.MaxToolCalls = inlineMaxToolCalls
	}

	out := cmd.OutOrStdout()
	loop := inline.NewLoop(llm, e.client(), cfg)
	if !inlineJSON {
		loop.SetTurnHook(func(turn inline.Turn) {
			printTurn(out, turn)
		})
	}

	result, runErr := loop.Run(ctx, task)
	e.record(ctx, runstore.FromInline(task, result, runErr), !inlineNoHistory)

	if inlineJSON && result != nil {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}

	return runErr
}

func printTurn(w io.Writer, turn inline.Turn) {
	switch turn.Kind {
	case inline.ReplyDone:
		fmt.Fprintf(w, "[%d] done\n", turn.N)
	case inline.ReplyFormatError:
		fmt.Fprintf(w, "[%d] rejected: %s\n", turn.N, turn.Reason)
	default:
		fmt.Fprintf(w, "[%d] %s\n", turn.N, turn.Call)
		if turn.Reason != "" {
			fmt.Fprintf(w, "    not executed: %s\n", turn.Reason)
			return
		}
		fmt.Fprintf(w, "    -> %s\n", planner.Stringify(turn.Result))
	}
}
