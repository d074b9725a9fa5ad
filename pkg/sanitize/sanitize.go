package sanitize

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/harun/toolplan/internal/observability"
)

// DefaultPasses returns the standard pass order. Reasoning blocks go first so
// brackets inside them are never mistaken for the plan; references are fixed
// before the string-aware passes so their quote tracking stays aligned.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: "strip_reasoning", Apply: StripReasoning},
		{Name: "strip_code_fences", Apply: StripCodeFences},
		{Name: "strip_fstring_prefix", Apply: StripFStringPrefix},
		{Name: "normalize_references", Apply: NormalizeReferences},
		{Name: "extract_array", Apply: ExtractArray},
		{Name: "strip_comments", Apply: StripComments},
		{Name: "strip_trailing_commas", Apply: StripTrailingCommas},
		{Name: "trim_space", Apply: TrimSpace},
	}
}

// Pipeline runs passes in order.
type Pipeline struct {
	passes []Pass
}

// Result is the pipeline output plus the names of passes that changed it.
type Result struct {
	Text    string
	Applied []string
}

// NewPipeline builds a pipeline from passes.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// DefaultPipeline builds a pipeline with DefaultPasses.
func DefaultPipeline() *Pipeline {
	return NewPipeline(DefaultPasses()...)
}

// Sanitize runs every pass over text. Valid JSON is returned unchanged.
func (p *Pipeline) Sanitize(text string) Result {
	if json.Valid([]byte(text)) {
		return Result{Text: text}
	}

	res := Result{Text: text}
	for _, pass := range p.passes {
		out := pass.Apply(res.Text)
		if out != res.Text {
			res.Applied = append(res.Applied, pass.Name)
			observability.RecordSanitizerRepair(pass.Name)
		}
		res.Text = out
	}
	return res
}

// Sanitize runs the default pipeline and returns the repaired text.
func Sanitize(text string) string {
	return DefaultPipeline().Sanitize(text).Text
}

// Repair is the last-resort structural fix (unbalanced brackets, single
// quotes, unquoted keys). Callers use it only after a strict decode failed.
func Repair(text string) (string, error) {
	out, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return "", fmt.Errorf("json repair: %w", err)
	}
	observability.RecordSanitizerRepair("json_repair")
	return out, nil
}
