// Package toolexecutor is the tool registry: immutable tool descriptors,
// startup registration, lookup, and invocation.
//
// Invariants:
// - Tool names are unique; a collision fails registration.
// - After Seal no tool can be added.
// - Calls with unknown or missing required parameters fail before the handler runs.
//
// Usage:
//
//	reg := toolexecutor.New()
//	_ = reg.RegisterTool(toolexecutor.ToolDefinition{
//		Name:        "echo",
//		Description: "Echo input",
//		Parameters:  []toolexecutor.ToolParameter{{Name: "text", Description: "text to echo", Required: true}},
//		Returns:     "the input text",
//		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
//			return params["text"], nil
//		},
//	})
//	reg.Seal()
//	out, err := reg.Invoke(ctx, "echo", map[string]interface{}{"text": "hi"})
package toolexecutor
