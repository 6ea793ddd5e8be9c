package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached splits.io response.
type Key struct {
	// Endpoint is the API path relative to the base URL,
	// e.g. "runs/3nm" or "games/sms/categories".
	Endpoint string

	// Query holds the query parameters (page, historic, ...).
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: splitsio:endpoint:query1=val1:query2=val2
//
// Example:
//
//	splitsio:runs/3nm:historic=1
func (k Key) String() string {
	parts := []string{"splitsio"}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism.
	if len(k.Query) > 0 {
		keys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
