package coretools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

const (
	userAgent        = "toolplan/1.0"
	maxBodyBytes     = 1 << 20
	maxPageChars     = 50000
	httpPreviewLines = 5
	maxScanPorts     = 1024
	portDialTimeout  = 500 * time.Millisecond
)

// connectivityProbe is dialed by check_internet_connection.
var connectivityProbe = "8.8.8.8:53"

func networkTools(opts Options) []toolexecutor.ToolDefinition {
	client := &http.Client{Timeout: opts.HTTPTimeout}

	return []toolexecutor.ToolDefinition{
		{
			Name:        "check_internet_connection",
			Description: "Check whether the internet is reachable.",
			Returns:     "connection status",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				d := net.Dialer{Timeout: 3 * time.Second}
				conn, err := d.DialContext(ctx, "tcp", connectivityProbe)
				if err != nil {
					return "Internet connection unavailable.", nil
				}
				conn.Close()
				return "Internet connection available.", nil
			},
		},
		{
			Name:        "resolve_hostname",
			Description: "Resolve a host name to an IP address.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "hostname", Description: "Host name to resolve", Required: true},
			},
			Returns: "IP address",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				hostname, err := requiredString(params, "hostname")
				if err != nil {
					return nil, err
				}
				addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
				if err != nil {
					return nil, err
				}
				for _, a := range addrs {
					if v4 := a.IP.To4(); v4 != nil {
						return v4.String(), nil
					}
				}
				if len(addrs) == 0 {
					return nil, fmt.Errorf("no address for %s", hostname)
				}
				return addrs[0].IP.String(), nil
			},
		},
		{
			Name:        "http_get",
			Description: "Perform an HTTP GET and return the first lines of the body.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "url", Description: "Target URL", Required: true},
			},
			Returns: "response preview",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				body, _, err := fetch(ctx, client, stringParam(params, "url"))
				if err != nil {
					return nil, err
				}
				return previewLines(string(body), httpPreviewLines), nil
			},
		},
		{
			Name:        "fetch_webpage",
			Description: "Fetch a web page and extract its main content as text or markdown.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "url", Description: "Page URL", Required: true},
				{Name: "format", Description: "text (default) or markdown"},
			},
			Returns: "page title and content",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				body, pageURL, err := fetch(ctx, client, stringParam(params, "url"))
				if err != nil {
					return nil, err
				}
				return ExtractPage(body, pageURL, stringParam(params, "format"))
			},
		},
		{
			Name:        "port_scan",
			Description: "Check which of the given TCP ports are open on a host.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "host", Description: "Target host", Required: true},
				{Name: "ports", Description: "Comma-separated ports", Required: true},
			},
			Returns: "open ports",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				host, err := requiredString(params, "host")
				if err != nil {
					return nil, err
				}
				ports, err := ParsePorts(stringParam(params, "ports"))
				if err != nil {
					return nil, err
				}
				open := scanPorts(ctx, host, ports)
				if len(open) == 0 {
					return "No open ports found", nil
				}
				return fmt.Sprintf("Open ports: %v", open), nil
			},
		},
	}
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, *url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, fmt.Errorf("invalid http url: %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch failed: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, u, nil
}

func previewLines(body string, n int) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return strings.Join(lines, "\n")
}

// ExtractPage pulls the readable article out of an HTML page. Text output is
// the article text passed through a strict sanitizer; markdown output converts
// the sanitized page HTML.
func ExtractPage(body []byte, pageURL *url.URL, format string) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	var content string
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		content = bluemonday.StrictPolicy().Sanitize(article.TextContent)
	case "markdown", "md":
		safe := bluemonday.UGCPolicy().Sanitize(string(body))
		converter := md.NewConverter(md.DomainFromURL(pageURL.String()), true, nil)
		content, err = converter.ConvertString(safe)
		if err != nil {
			return "", fmt.Errorf("html conversion failed: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown format %q (want text or markdown)", format)
	}

	content = strings.TrimSpace(content)
	if len(content) > maxPageChars {
		content = content[:maxPageChars] + "\n...[truncated]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", article.Excerpt)
	}
	b.WriteString("\n")
	b.WriteString(content)
	return b.String(), nil
}

// ParsePorts parses a comma-separated port list.
func ParsePorts(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ports := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		ports = append(ports, n)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports given")
	}
	if len(ports) > maxScanPorts {
		return nil, fmt.Errorf("at most %d ports per scan", maxScanPorts)
	}
	return ports, nil
}

func scanPorts(ctx context.Context, host string, ports []int) []int {
	d := net.Dialer{Timeout: portDialTimeout}
	var open []int
	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		conn.Close()
		open = append(open, port)
	}
	return open
}
