package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/pkg/sanitize"
)

// ErrEmptyPlan is returned when a reply parses to zero steps.
var ErrEmptyPlan = errors.New("plan has no steps")

// PlanParseError reports model output that is still not a valid plan after
// repair. Text is the post-repair text.
type PlanParseError struct {
	Text string
	Err  error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("plan parse error: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error {
	return e.Err
}

// ParsePlan sanitizes raw model output and decodes it into steps. When the
// sanitized text still fails to decode, a generic JSON repair is attempted
// before giving up with a *PlanParseError.
func ParsePlan(raw string) ([]Step, error) {
	text := sanitize.Sanitize(raw)

	steps, err := decodeSteps(text)
	if err == nil {
		return steps, nil
	}

	if repaired, rerr := sanitize.Repair(text); rerr == nil && repaired != text {
		if repairedSteps, derr := decodeSteps(repaired); derr == nil {
			log.Debug().Str("pass", "jsonrepair").Msg("Plan recovered by generic JSON repair")
			observability.RecordSanitizerRepair("jsonrepair")
			return repairedSteps, nil
		}
	}

	observability.RecordPlanParseError()
	return nil, &PlanParseError{Text: text, Err: err}
}

// NewPlan wraps steps in a Plan with a fresh ID.
func NewPlan(task string, steps []Step) *Plan {
	return &Plan{
		ID:        uuid.New().String(),
		Task:      task,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
}

// LoadPlanFile reads a saved plan. The file may hold a bare step array, a
// single step, or a {"steps": [...]} object, and goes through the same
// repair as model output.
func LoadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	steps, err := ParsePlan(string(data))
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		ID   string `json:"id"`
		Task string `json:"task"`
	}
	_ = json.Unmarshal(data, &wrapper)

	plan := NewPlan(wrapper.Task, steps)
	if wrapper.ID != "" {
		plan.ID = wrapper.ID
	}
	return plan, nil
}

func decodeSteps(text string) ([]Step, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, errors.New("empty reply")
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := strictUnmarshal(trimmed, &items); err != nil {
			return nil, err
		}
	case '{':
		var wrapper struct {
			Steps []json.RawMessage `json:"steps"`
		}
		if err := strictUnmarshal(trimmed, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Steps != nil {
			items = wrapper.Steps
		} else {
			items = []json.RawMessage{trimmed}
		}
	default:
		return nil, fmt.Errorf("expected a JSON array, got %q", string(trimmed[:1]))
	}

	if len(items) == 0 {
		return nil, ErrEmptyPlan
	}

	steps := make([]Step, 0, len(items))
	for i, item := range items {
		step, err := decodeStep(item)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeStep(data json.RawMessage) (Step, error) {
	var obj map[string]interface{}
	if err := strictUnmarshal(data, &obj); err != nil {
		return Step{}, fmt.Errorf("not an object: %w", err)
	}

	action, ok := obj["action"].(string)
	if !ok || action == "" {
		return Step{}, errors.New("missing action")
	}

	step := Step{Action: action, Params: map[string]interface{}{}}
	switch params := obj["params"].(type) {
	case nil:
	case map[string]interface{}:
		step.Params = params
	default:
		return Step{}, fmt.Errorf("params must be an object, got %T", params)
	}
	return step, nil
}

// strictUnmarshal decodes a single JSON value, keeping numbers as json.Number.
func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
