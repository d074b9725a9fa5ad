package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/internal/config"
	"github.com/harun/toolplan/pkg/toolexecutor"
)

func TestIsRunning(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing PID file", func(t *testing.T) {
		assert.False(t, isRunning(filepath.Join(dir, "missing.pid")))
	})

	t.Run("garbage PID file", func(t *testing.T) {
		p := filepath.Join(dir, "garbage.pid")
		require.NoError(t, os.WriteFile(p, []byte("abc"), 0o644))
		assert.False(t, isRunning(p))
	})

	t.Run("live process", func(t *testing.T) {
		p := filepath.Join(dir, "self.pid")
		require.NoError(t, writePIDFile(p))
		assert.True(t, isRunning(p))

		pid, err := readPID(p)
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)
	})
}

func TestPIDFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "toolplan.pid"), pidFilePath("/data"))
	assert.Contains(t, pidFilePath(""), "toolplan.pid")
}

func TestServeRefusesSecondInstance(t *testing.T) {
	path := setupConfig(t, nil)
	e := loadTestEnv(t, path)
	require.NoError(t, writePIDFile(pidFilePath(e.cfg.DataDir)))

	_, err := runCLI(t, "serve", "--config", path, "--port", strconv.Itoa(18123))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestBuildRegistry(t *testing.T) {
	t.Run("all categories", func(t *testing.T) {
		cfg := config.DefaultConfig().Tools
		cfg.SQLitePath = filepath.Join(t.TempDir(), "tools.db")

		registry, err := buildRegistry(cfg)
		require.NoError(t, err)

		assert.True(t, registry.Sealed())
		for _, name := range []string{"get_current_time", "create_folder", "count_words", "calculate_expression", "http_get", "query_data"} {
			assert.True(t, registry.Has(name), "missing %s", name)
		}
	})

	t.Run("disabled categories", func(t *testing.T) {
		registry, err := buildRegistry(config.ToolsConfig{
			DisabledCategories: []string{"OS", "database"},
			EnableNetwork:      true,
		})
		require.NoError(t, err)

		assert.Empty(t, registry.FilterByCategory(toolexecutor.CategoryOS))
		assert.Empty(t, registry.FilterByCategory(toolexecutor.CategoryDatabase))
		assert.NotEmpty(t, registry.FilterByCategory(toolexecutor.CategoryNetwork))
	})

	t.Run("network switch", func(t *testing.T) {
		registry, err := buildRegistry(config.ToolsConfig{EnableNetwork: false})
		require.NoError(t, err)
		assert.False(t, registry.Has("http_get"))
		assert.True(t, registry.Has("count_words"))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := buildRegistry(config.ToolsConfig{DisabledCategories: []string{"quantum"}})
		require.Error(t, err)
	})
}
