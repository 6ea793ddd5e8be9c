package splitsio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/splitsio/go-splitsio/pkg/client"
	"github.com/splitsio/go-splitsio/pkg/paginate"
)

// ErrMalformedResponse indicates a response body missing the expected
// collection key, or pagination headers inconsistent with the body.
// Surfaced immediately, never silently defaulted.
var ErrMalformedResponse = errors.New("malformed splits.io response")

// Pagination metadata headers. Their presence is the sole signal that
// a result is paginated.
const (
	headerPerPage = "Per-Page"
	headerTotal   = "Total"
)

// Query fetches a collection endpoint and returns its items under the
// entity's own collection key. If the response carries pagination
// headers the sequence is lazy: the items already in hand become page
// 0 and further pages load on first access. Otherwise the complete
// result set is returned as a static sequence.
//
// This is the sole decision point between one-shot and paginated
// fetches.
func Query[T Resource](ctx context.Context, cl *client.Client, endpoint string) (paginate.Sequence[T], error) {
	var zero T
	return QueryKey[T](ctx, cl, endpoint, zero.collection())
}

// QueryKey is Query with an explicit JSON key holding the item array,
// for association queries whose key differs from the entity's
// collection name (a runner's "pbs" still deserializes into Runs).
func QueryKey[T Resource](ctx context.Context, cl *client.Client, endpoint, key string) (paginate.Sequence[T], error) {
	header, body, err := cl.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	items, err := decodeCollection[T](body, key)
	if err != nil {
		return nil, err
	}

	if header.Get(headerPerPage) == "" {
		// All results are already in hand.
		return paginate.NewStatic(items), nil
	}

	perPage, total, err := paginationMeta(header)
	if err != nil {
		return nil, err
	}

	seq, err := paginate.NewLazy(perPage, total, pageLoader[T](cl, endpoint, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if seq.NumPages() > 0 {
		// The response body is page 0; it must never trigger a refetch.
		if err := seq.Prime(0, items); err != nil {
			return nil, fmt.Errorf("%w: first page inconsistent with pagination headers: %v", ErrMalformedResponse, err)
		}
	} else if len(items) != 0 {
		return nil, fmt.Errorf("%w: Total is 0 but body has %d items", ErrMalformedResponse, len(items))
	}
	return seq, nil
}

// pageLoader returns the page-loading strategy for a paginated
// endpoint: one GET per page with a 1-based page query parameter,
// items decoded under key in response order.
func pageLoader[T Resource](cl *client.Client, endpoint, key string) paginate.PageLoader[T] {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return func(ctx context.Context, page int) ([]T, error) {
		_, body, err := cl.Get(ctx, endpoint+sep+"page="+strconv.Itoa(page+1))
		if err != nil {
			return nil, err
		}
		return decodeCollection[T](body, key)
	}
}

// paginationMeta parses the Per-Page and Total headers.
func paginationMeta(header http.Header) (perPage, total int, err error) {
	perPage, err = strconv.Atoi(header.Get(headerPerPage))
	if err != nil || perPage <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid %s header %q", ErrMalformedResponse, headerPerPage, header.Get(headerPerPage))
	}
	total, err = strconv.Atoi(header.Get(headerTotal))
	if err != nil || total < 0 {
		return 0, 0, fmt.Errorf("%w: invalid %s header %q", ErrMalformedResponse, headerTotal, header.Get(headerTotal))
	}
	return perPage, total, nil
}

// decodeCollection extracts the item array under key and deserializes
// each element, preserving response order.
func decodeCollection[T Resource](body []byte, key string) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing collection key %q", ErrMalformedResponse, key)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrMalformedResponse, key, err)
	}
	return items, nil
}

// fetchOne fetches a single entity endpoint; the body nests the entity
// under its singular item key.
func fetchOne[T Resource](ctx context.Context, cl *client.Client, endpoint string) (*T, error) {
	var out T
	_, body, err := cl.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := envelope[out.item()]
	if !ok {
		return nil, fmt.Errorf("%w: missing item key %q", ErrMalformedResponse, out.item())
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrMalformedResponse, out.item(), err)
	}
	return &out, nil
}

// GameByID fetches a game by Speedrun.com shortname or name.
func GameByID(ctx context.Context, cl *client.Client, id string) (*Game, error) {
	return fetchOne[Game](ctx, cl, "games/"+url.PathEscape(id))
}

// CategoryByID fetches a category by its numeric ID string.
func CategoryByID(ctx context.Context, cl *client.Client, id string) (*Category, error) {
	return fetchOne[Category](ctx, cl, "categories/"+url.PathEscape(id))
}

// RunnerByName fetches a runner by username (case-insensitive).
func RunnerByName(ctx context.Context, cl *client.Client, name string) (*Runner, error) {
	return fetchOne[Runner](ctx, cl, "runners/"+url.PathEscape(strings.ToLower(name)))
}

// RunByID fetches a run by its base 36 ID. With historic set, the
// response additionally carries per-segment and run-level attempt
// histories, which duration derivation requires. Run-level histories
// are sorted by attempt number once here; the run is immutable
// afterwards.
func RunByID(ctx context.Context, cl *client.Client, id string, historic bool) (*Run, error) {
	h := "0"
	if historic {
		h = "1"
	}
	run, err := fetchOne[Run](ctx, cl, "runs/"+url.PathEscape(id)+"?historic="+h)
	if err != nil {
		return nil, err
	}
	run.normalize()
	return run, nil
}
