package toolexecutor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultTimeout bounds a single handler call. When it fires Invoke returns
// at once and cancels the handler's context; the handler goroutine is not
// waited for, so handlers doing blocking work must return when ctx is done.
const DefaultTimeout = 30 * time.Second

// ToolParameter is one entry of a tool's parameter manifest.
type ToolParameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolDefinition defines a tool's metadata and handler.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Returns     string          `json:"returns"`
	Category    ToolCategory    `json:"category,omitempty"`
	Handler     ToolHandler     `json:"-"`
}

// ToolHandler is the function signature for tool execution. ctx is cancelled
// when the call times out or the caller gives up.
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolExecutor is the process-wide tool registry. Tools are registered during
// startup; after Seal the set is fixed and lookups are safe from any goroutine.
type ToolExecutor struct {
	tools   map[string]*ToolDefinition
	schemas map[string]*gojsonschema.Schema
	sealed  bool
	timeout time.Duration
	mu      sync.RWMutex
}

// New creates an empty registry.
func New() *ToolExecutor {
	return &ToolExecutor{
		tools:   make(map[string]*ToolDefinition),
		schemas: make(map[string]*gojsonschema.Schema),
		timeout: DefaultTimeout,
	}
}

// SetTimeout changes the per-call handler timeout. Zero disables it.
func (te *ToolExecutor) SetTimeout(timeout time.Duration) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.timeout = timeout
}

// RegisterTool adds a tool. Names are unique: a second registration fails
// with DuplicateToolError instead of replacing the first.
func (te *ToolExecutor) RegisterTool(def ToolDefinition) error {
	if err := validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := generateJSONSchema(def)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", def.Name, err)
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	if te.sealed {
		return fmt.Errorf("register %s: %w", def.Name, ErrRegistrySealed)
	}
	if _, exists := te.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}

	te.tools[def.Name] = &def
	te.schemas[def.Name] = schema

	log.Debug().Str("tool", def.Name).Msg("Tool registered")

	return nil
}

// Seal ends startup registration.
func (te *ToolExecutor) Seal() {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.sealed = true
	log.Info().Int("tools", len(te.tools)).Msg("Tool registry sealed")
}

// Sealed reports whether Seal has been called.
func (te *ToolExecutor) Sealed() bool {
	te.mu.RLock()
	defer te.mu.RUnlock()
	return te.sealed
}

// GetTool returns a tool definition by name, or nil.
func (te *ToolExecutor) GetTool(name string) *ToolDefinition {
	te.mu.RLock()
	defer te.mu.RUnlock()
	return te.tools[name]
}

// Has reports whether a tool is registered under name.
func (te *ToolExecutor) Has(name string) bool {
	return te.GetTool(name) != nil
}

// ListTools returns all registered tool names, sorted.
func (te *ToolExecutor) ListTools() []string {
	te.mu.RLock()
	defer te.mu.RUnlock()

	names := make([]string, 0, len(te.tools))
	for name := range te.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolCount returns the number of registered tools.
func (te *ToolExecutor) GetToolCount() int {
	te.mu.RLock()
	defer te.mu.RUnlock()
	return len(te.tools)
}

// Describe returns the descriptors of every registered tool, sorted by name.
func (te *ToolExecutor) Describe() []Descriptor {
	return te.describe(te.ListTools())
}

// DescribeCategory returns the descriptors of the tools in category, sorted by name.
func (te *ToolExecutor) DescribeCategory(category ToolCategory) []Descriptor {
	return te.describe(te.FilterByCategory(category))
}

func (te *ToolExecutor) describe(names []string) []Descriptor {
	te.mu.RLock()
	defer te.mu.RUnlock()

	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, NewDescriptor(te.tools[name]))
	}
	return out
}

// Invoke runs the named tool with params. It returns ToolNotFoundError for an
// unknown name and ToolExecutionError when validation or the handler fails.
func (te *ToolExecutor) Invoke(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	te.mu.RLock()
	tool := te.tools[name]
	schema := te.schemas[name]
	timeout := te.timeout
	te.mu.RUnlock()

	if tool == nil {
		return nil, &ToolNotFoundError{Name: name}
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	if err := validateParameters(schema, params); err != nil {
		return nil, &ToolExecutionError{Tool: name, Message: err.Error(), Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := tool.Handler(ctx, params)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			log.Debug().Str("tool", name).Dur("duration", time.Since(start)).Err(out.err).Msg("Tool execution failed")
			return nil, &ToolExecutionError{Tool: name, Message: out.err.Error(), Err: out.err}
		}
		log.Debug().Str("tool", name).Dur("duration", time.Since(start)).Msg("Tool execution completed")
		return out.value, nil

	case <-ctx.Done():
		err := ctx.Err()
		msg := err.Error()
		if err == context.DeadlineExceeded {
			msg = fmt.Sprintf("tool execution timeout after %v", timeout)
		}
		log.Warn().Str("tool", name).Dur("duration", time.Since(start)).Msg(msg)
		return nil, &ToolExecutionError{Tool: name, Message: msg, Err: err}
	}
}

func validateToolDefinition(def ToolDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty for %s", def.Name)
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil for %s", def.Name)
	}
	if def.Category != "" && !IsValidCategory(string(def.Category)) {
		return fmt.Errorf("invalid category %s for %s", def.Category, def.Name)
	}

	seen := make(map[string]bool, len(def.Parameters))
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty for %s", def.Name)
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %s for %s", param.Name, def.Name)
		}
		seen[param.Name] = true
	}

	return nil
}

// generateJSONSchema builds the call schema: known parameter names only,
// required ones present. Values are not type-checked; the manifest is advisory.
func generateJSONSchema(def ToolDefinition) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		properties[param.Name] = map[string]interface{}{
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("parameter validation failed: %s", strings.Join(msgs, "; "))
	}

	return nil
}
