package paginate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// fakeBacking simulates a remote collection of total ints split into
// pages of perPage, counting loads per page.
type fakeBacking struct {
	perPage int
	total   int
	loads   map[int]int
	failOn  map[int]error
}

func newFakeBacking(perPage, total int) *fakeBacking {
	return &fakeBacking{
		perPage: perPage,
		total:   total,
		loads:   make(map[int]int),
		failOn:  make(map[int]error),
	}
}

func (f *fakeBacking) loader() PageLoader[int] {
	return func(_ context.Context, page int) ([]int, error) {
		f.loads[page]++
		if err := f.failOn[page]; err != nil {
			return nil, err
		}
		lo := page * f.perPage
		hi := lo + f.perPage
		if hi > f.total {
			hi = f.total
		}
		items := make([]int, 0, hi-lo)
		for i := lo; i < hi; i++ {
			items = append(items, i*10)
		}
		return items, nil
	}
}

func TestLazy_LenWithoutFetch(t *testing.T) {
	tests := []struct {
		name     string
		perPage  int
		total    int
		numPages int
	}{
		{"exact pages", 25, 50, 2},
		{"partial last page", 25, 60, 3},
		{"single page", 10, 3, 1},
		{"empty", 25, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backing := newFakeBacking(tt.perPage, tt.total)
			seq, err := NewLazy(tt.perPage, tt.total, backing.loader())
			if err != nil {
				t.Fatalf("NewLazy failed: %v", err)
			}
			if seq.Len() != tt.total {
				t.Errorf("Len() = %d, want %d", seq.Len(), tt.total)
			}
			if seq.NumPages() != tt.numPages {
				t.Errorf("NumPages() = %d, want %d", seq.NumPages(), tt.numPages)
			}
			if len(backing.loads) != 0 {
				t.Errorf("Len/NumPages triggered %d loads, want 0", len(backing.loads))
			}
		})
	}
}

func TestNewLazy_Validation(t *testing.T) {
	loader := newFakeBacking(1, 1).loader()

	if _, err := NewLazy(0, 10, loader); !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("perPage=0: error = %v, want ErrInvalidPageSize", err)
	}
	if _, err := NewLazy(-1, 10, loader); !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("perPage=-1: error = %v, want ErrInvalidPageSize", err)
	}
	if _, err := NewLazy(10, -1, loader); err == nil {
		t.Error("total=-1: expected error")
	}
	if _, err := NewLazy[int](10, 10, nil); err == nil {
		t.Error("nil loader: expected error")
	}
}

func TestLazy_ArbitraryOrderMatchesReference(t *testing.T) {
	const (
		perPage = 7
		total   = 45
	)
	backing := newFakeBacking(perPage, total)
	seq, err := NewLazy(perPage, total, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	ctx := context.Background()
	order := rand.New(rand.NewSource(1)).Perm(total)
	for _, i := range order {
		got, err := seq.At(ctx, i)
		if err != nil {
			t.Fatalf("At(%d) failed: %v", i, err)
		}
		if got != i*10 {
			t.Errorf("At(%d) = %d, want %d", i, got, i*10)
		}
	}

	// Every page loaded exactly once despite the shuffled access order.
	for page := 0; page < seq.NumPages(); page++ {
		if backing.loads[page] != 1 {
			t.Errorf("page %d loaded %d times, want 1", page, backing.loads[page])
		}
	}
}

func TestLazy_LoadsOnlyTargetPage(t *testing.T) {
	backing := newFakeBacking(25, 60)
	seq, err := NewLazy(25, 60, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	got, err := seq.At(context.Background(), 40)
	if err != nil {
		t.Fatalf("At(40) failed: %v", err)
	}
	if got != 400 {
		t.Errorf("At(40) = %d, want 400", got)
	}

	if backing.loads[1] != 1 {
		t.Errorf("page 1 loaded %d times, want 1", backing.loads[1])
	}
	for _, page := range []int{0, 2} {
		if backing.loads[page] != 0 {
			t.Errorf("page %d loaded %d times, want 0", page, backing.loads[page])
		}
	}
}

func TestLazy_OutOfRange(t *testing.T) {
	backing := newFakeBacking(10, 25)
	seq, err := NewLazy(10, 25, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	ctx := context.Background()
	for _, i := range []int{-1, 25, 100} {
		if _, err := seq.At(ctx, i); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("At(%d): error = %v, want ErrOutOfRange", i, err)
		}
	}
	if _, err := seq.Slice(ctx, 0, 26); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Slice(0, 26): error = %v, want ErrOutOfRange", err)
	}
	if _, err := seq.Slice(ctx, -1, 5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Slice(-1, 5): error = %v, want ErrOutOfRange", err)
	}
	if len(backing.loads) != 0 {
		t.Errorf("out-of-range accesses triggered %d loads, want 0", len(backing.loads))
	}
}

func TestLazy_FailedLoadRetriedOnNextAccess(t *testing.T) {
	backing := newFakeBacking(10, 30)
	loadErr := errors.New("remote unavailable")
	backing.failOn[1] = loadErr

	seq, err := NewLazy(10, 30, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	ctx := context.Background()
	if _, err := seq.At(ctx, 15); !errors.Is(err, loadErr) {
		t.Fatalf("At(15): error = %v, want %v", err, loadErr)
	}
	if seq.Loaded(1) {
		t.Error("failed page retained partial state")
	}

	// Clear the failure; the next access retries the load.
	delete(backing.failOn, 1)
	got, err := seq.At(ctx, 15)
	if err != nil {
		t.Fatalf("At(15) after recovery failed: %v", err)
	}
	if got != 150 {
		t.Errorf("At(15) = %d, want 150", got)
	}
	if backing.loads[1] != 2 {
		t.Errorf("page 1 loaded %d times, want 2 (failure + retry)", backing.loads[1])
	}
}

func TestLazy_PrimeSkipsFirstLoad(t *testing.T) {
	backing := newFakeBacking(5, 12)
	seq, err := NewLazy(5, 12, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	if err := seq.Prime(0, []int{0, 10, 20, 30, 40}); err != nil {
		t.Fatalf("Prime failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		got, err := seq.At(ctx, i)
		if err != nil {
			t.Fatalf("At(%d) failed: %v", i, err)
		}
		if got != i*10 {
			t.Errorf("At(%d) = %d, want %d", i, got, i*10)
		}
	}
	if backing.loads[0] != 0 {
		t.Errorf("primed page 0 loaded %d times, want 0", backing.loads[0])
	}

	// Priming with the wrong item count is rejected.
	if err := seq.Prime(1, []int{1, 2}); err == nil {
		t.Error("Prime with short page: expected error")
	}
	if err := seq.Prime(2, []int{1, 2}); err != nil {
		t.Errorf("Prime last partial page failed: %v", err)
	}
	if err := seq.Prime(5, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Prime(5): error = %v, want ErrOutOfRange", err)
	}
}

func TestLazy_ShortPageRejected(t *testing.T) {
	seq, err := NewLazy(10, 30, func(_ context.Context, page int) ([]int, error) {
		return []int{1, 2, 3}, nil // always short
	})
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	if _, err := seq.At(context.Background(), 0); err == nil {
		t.Fatal("expected error for page shorter than metadata")
	}
	if seq.Loaded(0) {
		t.Error("inconsistent page was cached")
	}
}

func TestLazy_SlicePreservesOrder(t *testing.T) {
	backing := newFakeBacking(4, 10)
	seq, err := NewLazy(4, 10, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	got, err := seq.Slice(context.Background(), 2, 9)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	for k, v := range got {
		want := (k + 2) * 10
		if v != want {
			t.Errorf("Slice[%d] = %d, want %d", k, v, want)
		}
	}
}

func TestStatic(t *testing.T) {
	seq := NewStatic([]string{"a", "b", "c"})
	ctx := context.Background()

	if seq.Len() != 3 {
		t.Errorf("Len() = %d, want 3", seq.Len())
	}
	got, err := seq.At(ctx, 1)
	if err != nil || got != "b" {
		t.Errorf("At(1) = (%q, %v), want (\"b\", nil)", got, err)
	}
	if _, err := seq.At(ctx, 3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(3): error = %v, want ErrOutOfRange", err)
	}
	all, err := All[string](ctx, seq)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if fmt.Sprint(all) != "[a b c]" {
		t.Errorf("All = %v, want [a b c]", all)
	}
}

func TestAll_MaterializesLazy(t *testing.T) {
	backing := newFakeBacking(3, 8)
	seq, err := NewLazy(3, 8, backing.loader())
	if err != nil {
		t.Fatalf("NewLazy failed: %v", err)
	}

	all, err := All[int](context.Background(), seq)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("All returned %d items, want 8", len(all))
	}
	for i, v := range all {
		if v != i*10 {
			t.Errorf("All[%d] = %d, want %d", i, v, i*10)
		}
	}
	for page := 0; page < 3; page++ {
		if backing.loads[page] != 1 {
			t.Errorf("page %d loaded %d times, want 1", page, backing.loads[page])
		}
	}
}
