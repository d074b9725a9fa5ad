package toolhost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/toolexecutor"
)

// RemoteError is a non-200 reply from a tool host.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("tool host returned %d: %s", e.Status, e.Detail)
}

// Client talks to a remote tool host.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListTools fetches the remote catalog.
func (c *Client) ListTools(ctx context.Context) ([]toolexecutor.Descriptor, error) {
	return c.ListToolsInCategory(ctx, "")
}

// ListToolsInCategory fetches the part of the remote catalog in category. An
// empty category returns every tool.
func (c *Client) ListToolsInCategory(ctx context.Context, category string) ([]toolexecutor.Descriptor, error) {
	path := "/tools"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RemoteError{Status: status, Detail: detail(body)}
	}

	var tools []toolexecutor.Descriptor
	if err := json.Unmarshal(body, &tools); err != nil {
		return nil, fmt.Errorf("failed to decode tool catalog: %w", err)
	}
	return tools, nil
}

// Execute invokes action remotely. A 404 becomes *toolexecutor.ToolNotFoundError
// and a 500 becomes *toolexecutor.ToolExecutionError carrying the remote detail.
func (c *Client) Execute(ctx context.Context, action string, params map[string]interface{}) (interface{}, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	payload, err := json.Marshal(ExecuteRequest{Action: action, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/execute", payload)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &toolexecutor.ToolNotFoundError{Name: action}
	case http.StatusInternalServerError:
		d := detail(body)
		return nil, &toolexecutor.ToolExecutionError{
			Tool:    action,
			Message: d,
			Err:     &RemoteError{Status: status, Detail: d},
		}
	default:
		return nil, &RemoteError{Status: status, Detail: detail(body)}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("tool host returned invalid JSON")
	}
	if s := gjson.GetBytes(body, "status").String(); s != statusSuccess {
		return nil, &RemoteError{Status: status, Detail: fmt.Sprintf("unexpected status %q", s)}
	}
	return gjson.GetBytes(body, "result").Value(), nil
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || gjson.GetBytes(body, "status").String() != "ok" {
		return nil, &RemoteError{Status: status, Detail: detail(body)}
	}
	health := &HealthStatus{
		Status:     "ok",
		Uptime:     time.Duration(gjson.GetBytes(body, "uptime").Float() * float64(time.Second)),
		Tools:      int(gjson.GetBytes(body, "tools").Int()),
		Categories: map[string]int{},
	}
	gjson.GetBytes(body, "categories").ForEach(func(key, value gjson.Result) bool {
		health.Categories[key.String()] = int(value.Int())
		return true
	})
	return health, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := tracing.GetRunID(ctx); id != "" {
		req.Header.Set("X-Run-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tool host request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read tool host reply: %w", err)
	}
	return body, resp.StatusCode, nil
}

// detail pulls "detail" out of an error body, falling back to the raw text.
func detail(body []byte) string {
	if d := gjson.GetBytes(body, "detail"); d.Exists() {
		return d.String()
	}
	return strings.TrimSpace(string(body))
}
