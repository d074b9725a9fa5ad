// Package planner turns a task into a Plan of tool calls and executes it.
//
// A Plan is an ordered list of Steps. The Executor runs them strictly in
// order: each step's parameters are resolved against the results recorded
// so far (references such as ${{get_desktop_path_result}}), the call is
// dispatched, and the outcome is recorded and logged. Step failures are
// recorded as data; only cancellation ends a run with an error.
package planner
