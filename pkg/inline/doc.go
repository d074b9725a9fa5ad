// Package inline implements the single-call-per-turn protocol: the model
// answers every turn with exactly one <tool>name(k="v")</tool> call or with
// <done>, sees the accumulated results on the next turn, and the loop stops
// on <done> or when a retry budget runs out.
package inline
