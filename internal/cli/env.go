package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/toolplan/internal/config"
	"github.com/harun/toolplan/internal/logger"
	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/pkg/agent"
	"github.com/harun/toolplan/pkg/coretools"
	"github.com/harun/toolplan/pkg/prompts"
	"github.com/harun/toolplan/pkg/runstore"
	"github.com/harun/toolplan/pkg/toolexecutor"
	"github.com/harun/toolplan/pkg/toolhost"
)

// env is the loaded configuration and process logger shared by commands.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

// loadEnv reads the config file, applies global flag overrides, validates the
// result and installs the process logger.
func loadEnv() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToLower(logLevel)
	}
	if endpointURL != "" {
		cfg.Endpoint.URL = endpointURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &env{cfg: cfg, log: lg}, nil
}

func (e *env) Close() {
	e.log.Close()
}

func (e *env) client() *toolhost.Client {
	return toolhost.NewClient(e.cfg.Endpoint.URL, e.cfg.Endpoint.TimeoutDuration())
}

func (e *env) provider(ctx context.Context) (agent.LLMProvider, error) {
	return agent.NewProvider(ctx, agent.ProviderConfig{
		Provider: e.cfg.Model.Provider,
		Model:    e.cfg.Model.Model,
		BaseURL:  e.cfg.Model.BaseURL,
		APIKey:   e.cfg.Model.APIKey,
	})
}

func (e *env) prompts() (prompts.Set, error) {
	if e.cfg.PromptsFile == "" {
		return prompts.Default(), nil
	}
	return prompts.LoadFile(e.cfg.PromptsFile)
}

// openHistory returns nil when run history is disabled.
func (e *env) openHistory() (*runstore.Store, error) {
	if !e.cfg.History.Enabled {
		return nil, nil
	}
	return runstore.New(runstore.Config{
		DBPath: e.cfg.History.Path,
		Logger: e.log.Zerolog().With().Str("component", "runstore").Logger(),
	})
}

// record audits a finished run and stores it unless persist is false. A store
// failure is logged; the run itself already happened.
func (e *env) record(ctx context.Context, run runstore.Run, persist bool) {
	observability.RecordRunAudit(ctx, run.Mode, run.ID, run.Status, map[string]interface{}{
		"task":    run.Task,
		"entries": len(run.Entries),
	})

	if !persist {
		return
	}
	store, err := e.openHistory()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open run history")
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if err := store.Save(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to save run")
	}
}

// buildRegistry registers the core tools allowed by cfg and seals the registry.
func buildRegistry(cfg config.ToolsConfig) (*toolexecutor.ToolExecutor, error) {
	deny, err := toolexecutor.ParseCategories(cfg.DisabledCategories)
	if err != nil {
		return nil, err
	}
	if !cfg.EnableNetwork {
		deny = append(deny, toolexecutor.CategoryNetwork)
	}

	sqlitePath := cfg.SQLitePath
	if sqlitePath != "" && cfg.WorkspaceRoot != "" && !filepath.IsAbs(sqlitePath) {
		sqlitePath = filepath.Join(cfg.WorkspaceRoot, sqlitePath)
	}

	registry := toolexecutor.New()
	if cfg.CallTimeout > 0 {
		registry.SetTimeout(time.Duration(cfg.CallTimeout) * time.Second)
	}
	err = coretools.RegisterAll(registry, coretools.Options{
		WorkspaceRoot: cfg.WorkspaceRoot,
		SQLitePath:    sqlitePath,
		HTTPTimeout:   time.Duration(cfg.HTTPTimeout) * time.Second,
		Policy:        toolexecutor.CategoryPolicy{Deny: deny},
	})
	if err != nil {
		return nil, err
	}
	registry.Seal()

	return registry, nil
}
