// Package toolhost serves a tool registry over HTTP and provides the client
// side used by plan and inline runs.
//
// Wire contract:
//
//	GET  /tools    -> [{"name", "description", "parameters", "returns"}, ...]
//	POST /execute  {"action": "...", "params": {...}}
//	               200 {"status": "success", "result": ...}
//	               404 {"detail": "..."}  unknown tool
//	               500 {"detail": "..."}  tool failure
//	               400 {"detail": "..."}  malformed request
//	GET  /health
//	GET  /metrics
package toolhost
