package toolexecutor

import (
	"errors"
	"fmt"
)

// ErrRegistrySealed is returned by RegisterTool once startup registration has ended.
var ErrRegistrySealed = errors.New("tool registry is sealed")

// DuplicateToolError reports a second registration under an existing name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// ToolNotFoundError reports a lookup of an unregistered tool name.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// ToolExecutionError wraps a handler failure with the tool name and raw error text.
type ToolExecutionError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) a ToolNotFoundError.
func IsNotFound(err error) bool {
	var nf *ToolNotFoundError
	return errors.As(err, &nf)
}
