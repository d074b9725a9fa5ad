// Package agent adapts language model APIs to one small text-completion
// interface used by the planner and the inline protocol.
package agent
