package inline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harun/toolplan/pkg/sanitize"
)

// ReplyKind classifies a model reply.
type ReplyKind string

const (
	ReplyDone        ReplyKind = "done"
	ReplyToolCall    ReplyKind = "tool_call"
	ReplyFormatError ReplyKind = "format_error"
)

// DoneSentinel is the whole reply that ends a run.
const DoneSentinel = "<done>"

var (
	toolTag     = regexp.MustCompile(`(?s)<tool>\s*(.*?)\((.*?)\)\s*</tool>`)
	argPattern  = regexp.MustCompile(`(\w+)\s*=\s*"((?:[^"\\]|\\.)*)"`)
	toolName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	argLeftover = regexp.MustCompile(`^[\s,]*$`)
)

// Arg is one key="value" argument.
type Arg struct {
	Key   string
	Value string
}

// Call is a parsed tool call.
type Call struct {
	Tool string
	Args []Arg
}

// Params returns the arguments as a parameter map. A repeated key keeps its
// last value.
func (c *Call) Params() map[string]interface{} {
	params := make(map[string]interface{}, len(c.Args))
	for _, a := range c.Args {
		params[a.Key] = a.Value
	}
	return params
}

// String renders the call in the wire form.
func (c *Call) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		parts = append(parts, fmt.Sprintf("%s=%q", a.Key, a.Value))
	}
	return c.Tool + "(" + strings.Join(parts, ", ") + ")"
}

// Reply is a classified model reply. Reason explains a format error.
type Reply struct {
	Kind   ReplyKind
	Call   *Call
	Text   string
	Reason string
}

// ParseReply classifies text. Reasoning blocks and surrounding whitespace are
// ignored. Anything other than exactly <done> or a reply that starts with
// <tool> and ends with </tool> is a format error; when several tags appear
// only the first is used.
func ParseReply(text string) Reply {
	cleaned := strings.TrimSpace(sanitize.StripReasoning(text))
	reply := Reply{Text: cleaned}

	if cleaned == DoneSentinel {
		reply.Kind = ReplyDone
		return reply
	}

	if !strings.HasPrefix(cleaned, "<tool>") || !strings.HasSuffix(cleaned, "</tool>") {
		return formatError(reply, "reply must be <done> or a single <tool>...</tool> block")
	}

	m := toolTag.FindStringSubmatch(cleaned)
	if m == nil {
		return formatError(reply, "no tool call found inside <tool> tags")
	}

	name := strings.TrimSpace(m[1])
	if !toolName.MatchString(name) {
		return formatError(reply, fmt.Sprintf("invalid tool name %q", name))
	}

	rawArgs := m[2]
	call := &Call{Tool: name}
	for _, am := range argPattern.FindAllStringSubmatch(rawArgs, -1) {
		call.Args = append(call.Args, Arg{Key: am[1], Value: unescape(am[2])})
	}
	if leftover := argPattern.ReplaceAllString(rawArgs, ""); !argLeftover.MatchString(leftover) {
		return formatError(reply, fmt.Sprintf("arguments must be key=\"value\" pairs, got %q", strings.TrimSpace(leftover)))
	}

	reply.Kind = ReplyToolCall
	reply.Call = call
	return reply
}

func formatError(r Reply, reason string) Reply {
	r.Kind = ReplyFormatError
	r.Reason = reason
	return r
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
