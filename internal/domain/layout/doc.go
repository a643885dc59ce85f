// Package layout persists window geometry across sessions.
//
// The Store maps window identifiers to WindowLayout values through a
// synchronous string-keyed KV boundary. Keys embed a version token
// (term_v1_layout_<windowID>) so schema changes never collide with stale
// persisted layouts.
//
// Persistence is best-effort: a failed save is a silent no-op and a failed
// or malformed load falls back to caller-supplied defaults, so windows
// always render even on a broken storage backend.
package layout
