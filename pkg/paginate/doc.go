// Package paginate provides a read-only, index-addressable view over a
// remote paginated collection. A Lazy sequence knows its page size and
// total item count up front (splits.io reports both in response
// headers) and fetches a page only when an index inside it is first
// accessed. Fetched pages are cached for the lifetime of the sequence;
// a failed load leaves the page unfetched so the next access retries.
//
// Page loading is modeled as an injected PageLoader rather than an
// embedding requirement, so test fixtures and alternative backends
// satisfy the same contract via composition.
//
// Sequences are not safe for concurrent use. Callers sharing a Lazy
// across goroutines must serialize access to the loading path.
package paginate
