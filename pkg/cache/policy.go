package cache

import (
	"strings"
	"time"
)

// TTL policy per resource class. An uploaded run is immutable once
// parsed; games, categories, and runners accrete new runs over time.
const (
	// RunTTL applies to single-run fetches (runs/{id}).
	RunTTL = 24 * time.Hour

	// ListingTTL applies to collection and association listings.
	ListingTTL = 5 * time.Minute
)

// TTLFor returns the cache lifetime for an endpoint path. Paginated
// collection pages share their listing's TTL; the page query parameter
// is part of the cache key, not the policy.
func TTLFor(endpoint string) time.Duration {
	endpoint = strings.Trim(endpoint, "/")
	segs := strings.Split(endpoint, "/")

	// runs/{id} is immutable; runs and {parent}/{id}/runs are listings.
	if len(segs) == 2 && segs[0] == "runs" {
		return RunTTL
	}
	return ListingTTL
}
