package inline

import "fmt"

// ProtocolFormatError describes a reply that matched neither accepted shape.
type ProtocolFormatError struct {
	Reply  string
	Reason string
}

func (e *ProtocolFormatError) Error() string {
	return fmt.Sprintf("protocol format error: %s", e.Reason)
}

// Budget names.
const (
	BudgetFormatErrors = "format_errors"
	BudgetToolCalls    = "tool_calls"
)

// RetryLimitExceeded ends a run whose format-error or tool-call budget ran out.
type RetryLimitExceeded struct {
	Budget       string
	Limit        int
	Calls        int
	FormatErrors int
	Last         error // last ProtocolFormatError, if any
}

func (e *RetryLimitExceeded) Error() string {
	return fmt.Sprintf("retry limit exceeded: %s budget of %d used up after %d tool calls and %d format errors",
		e.Budget, e.Limit, e.Calls, e.FormatErrors)
}

func (e *RetryLimitExceeded) Unwrap() error {
	return e.Last
}
