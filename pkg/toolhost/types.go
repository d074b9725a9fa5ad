package toolhost

import "time"

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Action string                 `json:"action"`
	Params map[string]interface{} `json:"params"`
}

// ExecuteResponse is the success body of POST /execute.
type ExecuteResponse struct {
	Status string      `json:"status"`
	Result interface{} `json:"result"`
}

// ErrorResponse is the body of every non-200 reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthStatus is the decoded reply of GET /health.
type HealthStatus struct {
	Status     string
	Uptime     time.Duration
	Tools      int
	Categories map[string]int
}

// ServerOptions configures the tool host server
type ServerOptions struct {
	Port               int           // Server port (default: 8000)
	Host               string        // Server host (default: "127.0.0.1")
	ReadTimeout        time.Duration // Request read timeout (default: 30s)
	RateLimitPerMinute int           // /execute requests per minute per client, 0 disables
	MaxBodyBytes       int64         // Request body limit (default: 1 MiB)
}

// RateLimitState tracks rate limiting per client
type RateLimitState struct {
	Requests []int64 // Timestamps of requests
}

const (
	requestIDHeader = "X-Request-ID"
	statusSuccess   = "success"
)
