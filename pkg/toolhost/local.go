package toolhost

import (
	"context"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

// LocalDispatcher runs tools from an in-process registry with the same
// surface as Client.
type LocalDispatcher struct {
	registry *toolexecutor.ToolExecutor
}

// NewLocalDispatcher wraps registry.
func NewLocalDispatcher(registry *toolexecutor.ToolExecutor) *LocalDispatcher {
	return &LocalDispatcher{registry: registry}
}

// ListTools returns the registry's descriptors.
func (d *LocalDispatcher) ListTools(ctx context.Context) ([]toolexecutor.Descriptor, error) {
	return d.registry.Describe(), nil
}

// Execute invokes the tool directly.
func (d *LocalDispatcher) Execute(ctx context.Context, action string, params map[string]interface{}) (interface{}, error) {
	return d.registry.Invoke(ctx, action, params)
}
