package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/internal/config"
	"github.com/harun/toolplan/pkg/toolhost"
)

var flagNames = []string{
	"help", "version",
	"config", "log-level", "endpoint",
	"host", "port", "timeout", "json", "limit", "category",
	"plan-file", "save-plan", "fail-fast", "no-history",
	"max-format-errors", "max-tool-calls",
	"provider", "model", "api-key", "base-url", "workspace", "show",
}

// resetFlags undoes flag values left behind by a previous Execute on the
// shared command tree.
func resetFlags() {
	cmds := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range cmds {
		for _, name := range flagNames {
			if f := c.Flags().Lookup(name); f != nil {
				f.Value.Set(f.DefValue)
				f.Changed = false
			}
			if f := c.PersistentFlags().Lookup(name); f != nil {
				f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIStreams(t, args...)
	return out, err
}

// runCLIStreams runs the command tree and returns stdout and stderr separately.
func runCLIStreams(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetErr(io.Discard)
	return out.String(), errOut.String(), err
}

// setupConfig points HOME at a temp dir and writes a config file whose data
// directory lives there. Extra top-level sections replace the defaults.
func setupConfig(t *testing.T, sections map[string]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	doc := map[string]interface{}{
		"data_dir": filepath.Join(dir, "data"),
		"logging":  map[string]interface{}{"level": "error", "console": false},
	}
	for k, v := range sections {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "toolplan.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// startToolHost serves the text and math core tools.
func startToolHost(t *testing.T) string {
	t.Helper()
	registry, err := buildRegistry(config.ToolsConfig{
		DisabledCategories: []string{"os", "filesystem", "network", "database"},
		EnableNetwork:      false,
	})
	require.NoError(t, err)

	server, err := toolhost.NewServer(toolhost.ServerOptions{}, registry, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func loadTestEnv(t *testing.T, path string) *env {
	t.Helper()
	resetFlags()
	cfgFile = path
	e, err := loadEnv()
	resetFlags()
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}
