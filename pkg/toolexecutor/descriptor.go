package toolexecutor

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Descriptor is the model-facing catalog entry for one tool. Parameters keep
// their declaration order on the wire.
type Descriptor struct {
	Name        string                                 `json:"name"`
	Description string                                 `json:"description"`
	Parameters  *orderedmap.OrderedMap[string, string] `json:"parameters"`
	Returns     string                                 `json:"returns"`
}

// NewDescriptor builds the descriptor of def.
func NewDescriptor(def *ToolDefinition) Descriptor {
	params := orderedmap.New[string, string]()
	for _, p := range def.Parameters {
		params.Set(p.Name, p.Description)
	}
	return Descriptor{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  params,
		Returns:     def.Returns,
	}
}

// ParameterNames returns parameter names in declaration order.
func (d Descriptor) ParameterNames() []string {
	if d.Parameters == nil {
		return nil
	}
	names := make([]string, 0, d.Parameters.Len())
	for pair := d.Parameters.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// UnmarshalJSON accepts a missing or null parameters object.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	type plain Descriptor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Parameters == nil {
		p.Parameters = orderedmap.New[string, string]()
	}
	*d = Descriptor(p)
	return nil
}
