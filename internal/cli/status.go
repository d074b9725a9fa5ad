package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tool host status",
	Long: `Show whether a local tool host process is running and query the
configured endpoint's health.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()

	pidFile := pidFilePath(e.cfg.DataDir)
	if isRunning(pidFile) {
		pid, _ := readPID(pidFile)
		fmt.Fprintf(out, "Local process: running (PID %d", pid)
		if info, err := os.Stat(pidFile); err == nil {
			fmt.Fprintf(out, ", up %s", formatDuration(time.Since(info.ModTime())))
		}
		fmt.Fprintln(out, ")")
	} else {
		fmt.Fprintln(out, "Local process: stopped")
	}

	fmt.Fprintf(out, "Endpoint: %s\n", e.cfg.Endpoint.URL)
	health, err := e.client().Health(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "Status: unreachable (%v)\n", err)
		return nil
	}

	fmt.Fprintf(out, "Status: %s\n", health.Status)
	fmt.Fprintf(out, "Tools: %d\n", health.Tools)
	if len(health.Categories) > 0 {
		fmt.Fprintf(out, "Categories: %s\n", formatCategories(health.Categories))
	}
	fmt.Fprintf(out, "Uptime: %s\n", formatDuration(health.Uptime))

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatCategories(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	return strings.Join(parts, ", ")
}
