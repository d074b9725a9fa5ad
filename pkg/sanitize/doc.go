// Package sanitize turns a language model's near-JSON plan reply into text
// that decodes as a JSON array of steps.
//
// The work is split into small passes, each a pure string rewrite with one
// job. Pipeline.Sanitize runs them in order and reports which passes changed
// the text. Input that is already valid JSON is returned untouched, and the
// pipeline is idempotent: sanitizing its own output changes nothing.
package sanitize
