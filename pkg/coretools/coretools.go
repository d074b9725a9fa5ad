package coretools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

// DefaultHTTPTimeout bounds outbound requests made by network tools.
const DefaultHTTPTimeout = 10 * time.Second

// Options configures core tool registration.
type Options struct {
	// WorkspaceRoot confines filesystem tools when set. Empty means any path.
	WorkspaceRoot string

	// SQLitePath is the database used by the sqlite tools.
	SQLitePath string

	HTTPTimeout time.Duration

	// Policy decides which tool categories are registered.
	Policy toolexecutor.CategoryPolicy
}

type module struct {
	category toolexecutor.ToolCategory
	tools    func(opts Options) []toolexecutor.ToolDefinition
}

var modules = []module{
	{toolexecutor.CategoryOS, osTools},
	{toolexecutor.CategoryMath, mathTools},
	{toolexecutor.CategoryFilesystem, fsTools},
	{toolexecutor.CategoryText, textTools},
	{toolexecutor.CategoryNetwork, networkTools},
	{toolexecutor.CategoryDatabase, sqliteTools},
}

// RegisterAll registers every tool module the policy allows. The executor is
// left unsealed; the caller seals it once registration ends.
func RegisterAll(executor *toolexecutor.ToolExecutor, opts Options) error {
	if executor == nil {
		return errors.New("tool executor is required")
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = DefaultHTTPTimeout
	}
	if opts.WorkspaceRoot != "" {
		root, err := filepath.Abs(opts.WorkspaceRoot)
		if err != nil {
			return fmt.Errorf("invalid workspace root: %w", err)
		}
		opts.WorkspaceRoot = root
	}

	for _, m := range modules {
		if !opts.Policy.Allows(m.category) {
			log.Debug().Str("category", string(m.category)).Msg("Tool category disabled")
			continue
		}
		if m.category == toolexecutor.CategoryDatabase && opts.SQLitePath == "" {
			log.Debug().Msg("No sqlite path configured, skipping database tools")
			continue
		}
		for _, def := range m.tools(opts) {
			def.Category = m.category
			if err := executor.RegisterTool(def); err != nil {
				return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
			}
		}
	}
	return nil
}

// stringParam reads a parameter as text. Non-string values are formatted the
// way they decoded.
func stringParam(params map[string]interface{}, name string) string {
	switch v := params[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func requiredString(params map[string]interface{}, name string) (string, error) {
	v := strings.TrimSpace(stringParam(params, name))
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// intParam accepts numbers and numeric strings; models send both.
func intParam(params map[string]interface{}, name string, fallback int) (int, error) {
	switch v := params[name].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(n), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

func boolParam(params map[string]interface{}, name string, fallback bool) bool {
	switch v := params[name].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		return b
	default:
		return fallback
	}
}

// resolvePath cleans pathValue and, when a workspace root is configured,
// resolves relative paths against it and rejects anything outside it.
func resolvePath(workspaceRoot string, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(pathValue, "://") {
		return "", fmt.Errorf("path must be a local file")
	}
	if workspaceRoot == "" {
		return filepath.Clean(pathValue), nil
	}

	candidate := pathValue
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workspaceRoot, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(workspaceRoot, candidate)
	if err != nil {
		return "", err
	}
	if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
		return candidate, nil
	}
	return "", fmt.Errorf("path %q is outside workspace root", pathValue)
}

func pathParam(opts Options, params map[string]interface{}, name string) (string, error) {
	raw, err := requiredString(params, name)
	if err != nil {
		return "", err
	}
	return resolvePath(opts.WorkspaceRoot, raw)
}

func readFileWithLimit(path string, limit int64) ([]byte, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, file, limit); err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	extra := make([]byte, 1)
	n, _ := file.Read(extra)
	return buf.Bytes(), n > 0, nil
}
