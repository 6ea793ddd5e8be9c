// Package cache provides Redis-backed caching of splits.io API
// responses. splits.io does not emit ETag or Expires headers, so
// freshness is policy-driven: immutable resources (an uploaded run
// never changes) get long TTLs, mutable listings short ones. Cached
// entries keep the original response headers, so pagination metadata
// (Per-Page, Total) survives a cache hit.
package cache
