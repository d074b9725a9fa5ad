// Package prompts renders the model-facing prompts for the batch planner and
// the inline single-call protocol.
package prompts

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

// Set holds the prompt templates. Templates use text/template with the sprig
// function map plus ref, which renders a result reference such as
// ${{get_desktop_path_result}}.
type Set struct {
	Planner string `yaml:"planner"`
	Inline  string `yaml:"inline"`
}

type toolView struct {
	Name        string
	Description string
	Params      []string
	Returns     string
}

type promptData struct {
	Task    string
	Tools   []toolView
	Results []string
}

// Default returns the built-in templates.
func Default() Set {
	return Set{Planner: defaultPlanner, Inline: defaultInline}
}

// LoadFile overlays the YAML keys planner and inline from path on top of the
// defaults. Empty keys keep the default template.
func LoadFile(path string) (Set, error) {
	set := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var overlay Set
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return set, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	if overlay.Planner != "" {
		set.Planner = overlay.Planner
	}
	if overlay.Inline != "" {
		set.Inline = overlay.Inline
	}

	if err := set.Validate(); err != nil {
		return Default(), err
	}
	return set, nil
}

// Validate parses both templates.
func (s Set) Validate() error {
	if _, err := parse("planner", s.Planner); err != nil {
		return err
	}
	if _, err := parse("inline", s.Inline); err != nil {
		return err
	}
	return nil
}

// RenderPlanner renders the batch planning prompt.
func (s Set) RenderPlanner(task string, tools []toolexecutor.Descriptor) (string, error) {
	return render("planner", s.Planner, promptData{Task: task, Tools: views(tools)})
}

// RenderInline renders one inline turn. results are the formatted outcomes of
// earlier calls, oldest first.
func (s Set) RenderInline(task string, tools []toolexecutor.Descriptor, results []string) (string, error) {
	return render("inline", s.Inline, promptData{Task: task, Tools: views(tools), Results: results})
}

// Ref renders the reference form for a tool's recorded result.
func Ref(action string) string {
	return "${{" + action + "_result}}"
}

func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["ref"] = Ref
	return fm
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
	}
	return tmpl, nil
}

func render(name, text string, data promptData) (string, error) {
	tmpl, err := parse(name, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func views(tools []toolexecutor.Descriptor) []toolView {
	out := make([]toolView, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolView{
			Name:        t.Name,
			Description: t.Description,
			Params:      t.ParameterNames(),
			Returns:     t.Returns,
		})
	}
	return out
}
