package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/toolplan/internal/config"
)

var (
	configureProvider  string
	configureModel     string
	configureAPIKey    string
	configureBaseURL   string
	configureWorkspace string
	configureShow      bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write or show the configuration file",
	Long: `Write the effective configuration (defaults, existing file, TOOLPLAN_*
environment variables and the flags below) back to the config file.
With --show the configuration is printed and nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureProvider, "provider", "", "model provider (openai, anthropic, gemini, ollama)")
	configureCmd.Flags().StringVar(&configureModel, "model", "", "model name")
	configureCmd.Flags().StringVar(&configureAPIKey, "api-key", "", "model API key")
	configureCmd.Flags().StringVar(&configureBaseURL, "base-url", "", "model base URL")
	configureCmd.Flags().StringVar(&configureWorkspace, "workspace", "", "root directory for filesystem tools")
	configureCmd.Flags().BoolVar(&configureShow, "show", false, "print the configuration without saving")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if configureProvider != "" {
		cfg.Model.Provider = configureProvider
	}
	if configureModel != "" {
		cfg.Model.Model = configureModel
	}
	if configureAPIKey != "" {
		cfg.Model.APIKey = configureAPIKey
	}
	if configureBaseURL != "" {
		cfg.Model.BaseURL = configureBaseURL
	}
	if configureWorkspace != "" {
		cfg.Tools.WorkspaceRoot = configureWorkspace
	}
	if endpointURL != "" {
		cfg.Endpoint.URL = endpointURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.NewValidator().ValidateAPIKey(cfg.Model.APIKey, cfg.Model.Provider); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if configureShow {
		shown := *cfg
		if shown.Model.APIKey != "" {
			shown.Model.APIKey = "********"
		}
		fmt.Fprintln(out, shown.String())
		return nil
	}

	// Save configuration
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "Configuration saved to: %s\n", loader.GetConfigPath())
	fmt.Fprintln(out, "You can now start the tool host with: toolplan serve")

	return nil
}
