package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/toolhost"
)

const (
	pidFileName     = "toolplan.pid"
	shutdownTimeout = 30 * time.Second
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool catalog over HTTP",
	Long: `Register the core tools, seal the registry and serve it as a tool host
until interrupted. A PID file in the data directory lets status and stop find
the running host.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host, overrides the config file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port, overrides the config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	hostCfg := e.cfg.Host
	if serveHost != "" {
		hostCfg.Host = serveHost
	}
	if servePort != 0 {
		hostCfg.Port = servePort
	}

	pidFile := pidFilePath(e.cfg.DataDir)
	if isRunning(pidFile) {
		return fmt.Errorf("tool host is already running (PID file: %s)", pidFile)
	}

	registry, err := buildRegistry(e.cfg.Tools)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	if hostCfg.AuditLog != "" {
		if err := observability.InitAuditLogger(hostCfg.AuditLog); err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer observability.GetAuditLogger().Close()
	}

	if err := tracing.InitOpenTelemetry("toolplan"); err != nil {
		log.Warn().Err(err).Msg("OpenTelemetry disabled")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tracing.ShutdownOpenTelemetry(ctx)
	}()

	server, err := toolhost.NewServer(toolhost.ServerOptions{
		Host:               hostCfg.Host,
		Port:               hostCfg.Port,
		ReadTimeout:        time.Duration(hostCfg.ReadTimeout) * time.Second,
		RateLimitPerMinute: hostCfg.RateLimit,
	}, registry, e.log.Zerolog().With().Str("component", "toolhost").Logger())
	if err != nil {
		return err
	}

	if err := writePIDFile(pidFile); err != nil {
		return err
	}
	defer os.Remove(pidFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func pidFilePath(dataDir string) string {
	if dataDir == "" {
		return filepath.Join(os.TempDir(), pidFileName)
	}
	return filepath.Join(dataDir, pidFileName)
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

func isRunning(pidFile string) bool {
	pid, err := readPID(pidFile)
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0
	return process.Signal(syscall.Signal(0)) == nil
}
