package paginate

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by sequences.
var (
	// ErrOutOfRange is returned for an index outside [0, Len()).
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidPageSize is returned when a Lazy sequence is
	// constructed with a non-positive page size.
	ErrInvalidPageSize = errors.New("items per page must be positive")
)

// PageLoader fetches one page of a remote collection by 0-based page
// index, preserving the remote response's element order.
type PageLoader[T any] func(ctx context.Context, page int) ([]T, error)

// Sequence is a read-only ordered collection. At may block on a remote
// fetch; Len never does.
type Sequence[T any] interface {
	Len() int
	At(ctx context.Context, i int) (T, error)
	Slice(ctx context.Context, lo, hi int) ([]T, error)
}

// Static is a Sequence over an already-complete result set.
type Static[T any] struct {
	items []T
}

// NewStatic wraps a fully loaded result set.
func NewStatic[T any](items []T) *Static[T] {
	return &Static[T]{items: items}
}

// Len returns the number of items.
func (s *Static[T]) Len() int { return len(s.items) }

// At returns the item at index i.
func (s *Static[T]) At(_ context.Context, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(s.items) {
		return zero, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, len(s.items))
	}
	return s.items[i], nil
}

// Slice returns items in [lo, hi).
func (s *Static[T]) Slice(_ context.Context, lo, hi int) ([]T, error) {
	if lo < 0 || hi > len(s.items) || lo > hi {
		return nil, fmt.Errorf("%w: [%d:%d] (len %d)", ErrOutOfRange, lo, hi, len(s.items))
	}
	out := make([]T, hi-lo)
	copy(out, s.items[lo:hi])
	return out, nil
}

// Lazy is a Sequence backed by a remote paginated collection. The page
// size and total item count are fixed at construction; pages are
// created unfetched and filled at most once each, never evicted.
type Lazy[T any] struct {
	perPage int
	total   int
	pages   [][]T
	load    PageLoader[T]
}

// NewLazy creates a lazy sequence of total items split into pages of
// perPage, loaded on demand through load.
func NewLazy[T any](perPage, total int, load PageLoader[T]) (*Lazy[T], error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, perPage)
	}
	if total < 0 {
		return nil, fmt.Errorf("total items must be non-negative, got %d", total)
	}
	if load == nil {
		return nil, errors.New("page loader is required")
	}
	numPages := (total + perPage - 1) / perPage
	return &Lazy[T]{
		perPage: perPage,
		total:   total,
		pages:   make([][]T, numPages),
		load:    load,
	}, nil
}

// Len returns the total item count. It never triggers a fetch.
func (l *Lazy[T]) Len() int { return l.total }

// NumPages returns the number of pages backing the sequence.
func (l *Lazy[T]) NumPages() int { return len(l.pages) }

// PerPage returns the fixed page size.
func (l *Lazy[T]) PerPage() int { return l.perPage }

// Loaded reports whether the given page has been fetched.
func (l *Lazy[T]) Loaded(page int) bool {
	return page >= 0 && page < len(l.pages) && l.pages[page] != nil
}

// Prime stores an already-fetched page, so that accesses within it
// never trigger a load. Used for the first page of a paginated
// response, whose items arrive with the pagination metadata.
func (l *Lazy[T]) Prime(page int, items []T) error {
	if page < 0 || page >= len(l.pages) {
		return fmt.Errorf("%w: page %d (pages %d)", ErrOutOfRange, page, len(l.pages))
	}
	if want := l.pageLen(page); len(items) != want {
		return fmt.Errorf("page %d has %d items, want %d", page, len(items), want)
	}
	l.pages[page] = items
	return nil
}

// At returns the item at index i, loading its page on first access.
// A load failure propagates to the caller and leaves the page
// unfetched, so the next access to the same page retries.
func (l *Lazy[T]) At(ctx context.Context, i int) (T, error) {
	var zero T
	if i < 0 || i >= l.total {
		return zero, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, l.total)
	}
	page := i / l.perPage
	if l.pages[page] == nil {
		items, err := l.load(ctx, page)
		if err != nil {
			return zero, fmt.Errorf("load page %d: %w", page, err)
		}
		if want := l.pageLen(page); len(items) != want {
			return zero, fmt.Errorf("page %d has %d items, want %d", page, len(items), want)
		}
		l.pages[page] = items
	}
	return l.pages[page][i%l.perPage], nil
}

// Slice returns items in [lo, hi), in order, loading pages as needed.
func (l *Lazy[T]) Slice(ctx context.Context, lo, hi int) ([]T, error) {
	if lo < 0 || hi > l.total || lo > hi {
		return nil, fmt.Errorf("%w: [%d:%d] (len %d)", ErrOutOfRange, lo, hi, l.total)
	}
	out := make([]T, 0, hi-lo)
	for i := lo; i < hi; i++ {
		item, err := l.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// pageLen returns the expected item count of a page: perPage for every
// page but possibly the last.
func (l *Lazy[T]) pageLen(page int) int {
	if page == len(l.pages)-1 {
		if rem := l.total % l.perPage; rem != 0 {
			return rem
		}
	}
	return l.perPage
}

// All materializes an entire sequence, loading every page.
func All[T any](ctx context.Context, s Sequence[T]) ([]T, error) {
	return s.Slice(ctx, 0, s.Len())
}
