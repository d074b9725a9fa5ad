// Package coretools provides the concrete tools a tool host serves: OS
// queries, filesystem operations, text utilities, arithmetic, network probes
// and a SQLite scratch database. Each module carries a tool category so a
// CategoryPolicy can switch whole groups off.
package coretools
