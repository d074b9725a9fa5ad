package planner

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Context accumulates step results for later steps. It belongs to a single
// run and is not safe for concurrent use.
type Context struct {
	values *orderedmap.OrderedMap[string, interface{}]
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{values: orderedmap.New[string, interface{}]()}
}

// ResultKey is the key a step's result is recorded under.
func ResultKey(action string) string {
	return action + "_result"
}

// StepKey is the per-step alias for the n-th (1-based) step's result.
func StepKey(n int) string {
	return "step" + strconv.Itoa(n) + "_result"
}

// Record stores value under ResultKey(action), replacing an earlier value.
func (c *Context) Record(action string, value interface{}) {
	c.values.Set(ResultKey(action), value)
}

// RecordStep stores value under both ResultKey(action) and StepKey(n).
func (c *Context) RecordStep(n int, action string, value interface{}) {
	c.Record(action, value)
	c.values.Set(StepKey(n), value)
}

// Set stores value under an explicit key.
func (c *Context) Set(key string, value interface{}) {
	c.values.Set(key, value)
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (interface{}, bool) {
	return c.values.Get(key)
}

// Keys returns keys in first-insertion order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, c.values.Len())
	for pair := c.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of keys.
func (c *Context) Len() int {
	return c.values.Len()
}

// Snapshot returns a copy of the stored values.
func (c *Context) Snapshot() map[string]interface{} {
	out := make(map[string]interface{}, c.values.Len())
	for pair := c.values.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}
