package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// referencePattern matches ${name} and ${{name}}.
var referencePattern = regexp.MustCompile(`\$\{\{?([A-Za-z0-9_]+)\}?\}`)

// Lookup is the read side of a Context.
type Lookup interface {
	Get(key string) (interface{}, bool)
}

// Resolve substitutes every reference in a string value with the string form
// of the referenced result. References to missing keys are left as written.
// Non-string values are returned unchanged.
func Resolve(value interface{}, ctx Lookup) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := referencePattern.FindStringSubmatch(match)[1]
		if v, found := ctx.Get(name); found {
			return Stringify(v)
		}
		return match
	})
}

// ResolveParams resolves every parameter value and reports the names of
// references that had no value, sorted and deduplicated.
func ResolveParams(params map[string]interface{}, ctx Lookup) (map[string]interface{}, []string) {
	resolved := make(map[string]interface{}, len(params))
	missing := map[string]struct{}{}

	for k, v := range params {
		if s, ok := v.(string); ok {
			for _, name := range References(s) {
				if _, found := ctx.Get(name); !found {
					missing[name] = struct{}{}
				}
			}
		}
		resolved[k] = Resolve(v, ctx)
	}

	if len(missing) == 0 {
		return resolved, nil
	}
	unresolved := make([]string, 0, len(missing))
	for name := range missing {
		unresolved = append(unresolved, name)
	}
	sort.Strings(unresolved)
	return resolved, unresolved
}

// References returns the names referenced in s, in order of appearance.
func References(s string) []string {
	matches := referencePattern.FindAllStringSubmatch(s, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Stringify renders a recorded result the way it is substituted into a
// parameter: strings verbatim, numbers without exponent noise, nil as the
// empty string, composite values as JSON.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
