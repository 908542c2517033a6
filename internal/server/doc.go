// Package server hosts the Fiber HTTP surface over the cache store: request
// middleware (request ID, panic recovery, structured access logs), the route
// table mapping plain HTTP verbs onto store operations, and the diagnostics
// endpoints under /-/. The handlers translate store semantics one-to-one:
// misses become 404, lost add/lock races become 409, degraded writes surface
// as stored=false rather than 5xx. No cache wire protocol lives here — this
// is a thin admin/ops surface, the engine itself is internal/cache.
package server
