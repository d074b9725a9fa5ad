package coretools

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentTime(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2024, 3, 9, 7, 5, 2, 0, time.Local) }
	defer func() { now = orig }()

	te := newRegistry(t, Options{})
	assert.Equal(t, "2024-03-09_070502", invoke(t, te, "get_current_time", nil))
}

func TestGetDesktopPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	te := newRegistry(t, Options{})
	assert.Equal(t, filepath.Join("/home/tester", "Desktop"), invoke(t, te, "get_desktop_path", nil))
}

func TestGetEnvVar(t *testing.T) {
	t.Setenv("TOOLPLAN_TEST_VAR", "value")
	te := newRegistry(t, Options{})

	assert.Equal(t, "value", invoke(t, te, "get_env_var", map[string]interface{}{"name": "TOOLPLAN_TEST_VAR"}))

	_, err := te.Invoke(t.Context(), "get_env_var", map[string]interface{}{"name": "TOOLPLAN_NOT_SET_ANYWHERE"})
	assert.ErrorContains(t, err, "not found")
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(32, false, false)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	for _, c := range s {
		assert.True(t, strings.ContainsRune(letterChars, c), "unexpected %q", c)
	}

	s, err = RandomString(64, true, true)
	require.NoError(t, err)
	assert.Len(t, s, 64)

	_, err = RandomString(0, true, false)
	assert.Error(t, err)
	_, err = RandomString(maxRandomStringLength+1, true, false)
	assert.Error(t, err)
}

func TestGenerateRandomStringTool(t *testing.T) {
	te := newRegistry(t, Options{})

	out := invoke(t, te, "generate_random_string", map[string]interface{}{
		"length":         "12",
		"include_digits": "false",
	})
	s, ok := out.(string)
	require.True(t, ok)
	assert.Len(t, s, 12)
	assert.False(t, strings.ContainsAny(s, digitChars))

	_, err := te.Invoke(t.Context(), "generate_random_string", map[string]interface{}{"length": "-1"})
	assert.Error(t, err)
}

func TestGetIPAndHostname(t *testing.T) {
	te := newRegistry(t, Options{})

	host, ok := invoke(t, te, "get_hostname", nil).(string)
	require.True(t, ok)
	assert.NotEmpty(t, host)

	ip, ok := invoke(t, te, "get_ip_address", nil).(string)
	require.True(t, ok)
	assert.Contains(t, ip, "Local IP: ")
}

func TestGetSystemInfo(t *testing.T) {
	te := newRegistry(t, Options{})

	info, ok := invoke(t, te, "get_system_info", nil).(string)
	require.True(t, ok)
	assert.Contains(t, info, "CPU: ")
	assert.Contains(t, info, "Memory: ")
	assert.Contains(t, info, "Disk: ")
}
