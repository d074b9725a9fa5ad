package coretools

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

// TimestampLayout is the get_current_time format, safe for file names.
const TimestampLayout = "2006-01-02_150405"

const (
	letterChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	maxRandomStringLength = 4096
)

// now is replaced in tests.
var now = time.Now

func osTools(opts Options) []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		{
			Name:        "get_desktop_path",
			Description: "Get the current user's desktop path.",
			Returns:     "full desktop path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return desktopPath()
			},
		},
		{
			Name:        "get_current_time",
			Description: "Get the current local time (format YYYY-MM-DD_HHMMSS).",
			Returns:     "time string",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return now().Format(TimestampLayout), nil
			},
		},
		{
			Name:        "get_hostname",
			Description: "Get the host name.",
			Returns:     "host name",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return os.Hostname()
			},
		},
		{
			Name:        "get_env_var",
			Description: "Read an environment variable.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "name", Description: "Variable name", Required: true},
			},
			Returns: "variable value",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				name, err := requiredString(params, "name")
				if err != nil {
					return nil, err
				}
				value, ok := os.LookupEnv(name)
				if !ok {
					return nil, fmt.Errorf("environment variable not found: %s", name)
				}
				return value, nil
			},
		},
		{
			Name:        "get_ip_address",
			Description: "Get the host name and local IP address.",
			Returns:     "host name and local IP",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				hostname, err := os.Hostname()
				if err != nil {
					return nil, err
				}
				ip, err := localIP()
				if err != nil {
					return nil, err
				}
				return fmt.Sprintf("Hostname: %s\nLocal IP: %s", hostname, ip), nil
			},
		},
		{
			Name:        "get_system_info",
			Description: "Get a system summary (OS, CPU, memory, disk usage).",
			Returns:     "system summary",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return systemInfo(ctx)
			},
		},
		{
			Name:        "generate_random_string",
			Description: "Generate a random string of the given length.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "length", Description: "String length", Required: true},
				{Name: "include_digits", Description: "Include digits (true/false, default true)"},
				{Name: "include_special_chars", Description: "Include punctuation (true/false, default false)"},
			},
			Returns: "the random string",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				length, err := intParam(params, "length", 0)
				if err != nil {
					return nil, err
				}
				return RandomString(length,
					boolParam(params, "include_digits", true),
					boolParam(params, "include_special_chars", false))
			},
		},
	}
}

func desktopPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, "Desktop"), nil
}

// localIP returns the first non-loopback IPv4 address.
func localIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "127.0.0.1", nil
}

func systemInfo(ctx context.Context) (string, error) {
	var b strings.Builder

	if info, err := host.InfoWithContext(ctx); err == nil {
		fmt.Fprintf(&b, "OS: %s %s (%s %s)\n", info.Platform, info.PlatformVersion, info.OS, info.KernelVersion)
	} else {
		fmt.Fprintf(&b, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cores = runtime.NumCPU()
	}
	usage := "n/a"
	if pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		usage = fmt.Sprintf("%.1f%%", pct[0])
	}
	fmt.Fprintf(&b, "CPU: %d cores, usage %s\n", cores, usage)

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read memory stats: %w", err)
	}
	fmt.Fprintf(&b, "Memory: %s used / %s total (%.1f%%)\n",
		humanize.IBytes(vm.Used), humanize.IBytes(vm.Total), vm.UsedPercent)

	du, err := disk.UsageWithContext(ctx, rootPath())
	if err != nil {
		return "", fmt.Errorf("failed to read disk stats: %w", err)
	}
	fmt.Fprintf(&b, "Disk: %s used / %s total (%.1f%%)",
		humanize.IBytes(du.Used), humanize.IBytes(du.Total), du.UsedPercent)

	return b.String(), nil
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("SystemDrive") + "\\"
	}
	return "/"
}

// RandomString draws length characters from letters plus the selected sets.
func RandomString(length int, digits, special bool) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if length > maxRandomStringLength {
		return "", fmt.Errorf("length must be at most %d", maxRandomStringLength)
	}

	pool := letterChars
	if digits {
		pool += digitChars
	}
	if special {
		pool += specialChars
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(pool)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = pool[n.Int64()]
	}
	return string(out), nil
}
