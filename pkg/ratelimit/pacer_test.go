package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewPacer_UnlimitedIsNil(t *testing.T) {
	for _, rps := range []int{0, -5} {
		if p := NewPacer(rps, zerolog.Nop()); p != nil {
			t.Errorf("NewPacer(%d) = %v, want nil", rps, p)
		}
	}
}

func TestPacer_NilWaitReturnsImmediately(t *testing.T) {
	var p *Pacer
	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait on nil pacer failed: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Error("nil pacer blocked")
	}
}

func TestPacer_EnforcesInterval(t *testing.T) {
	p := NewPacer(100, zerolog.Nop()) // 10ms interval
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	// First slot is immediate; three more slots need >= 30ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("4 requests completed in %v, want >= 30ms", elapsed)
	}
}

func TestPacer_RespectsContextCancellation(t *testing.T) {
	p := NewPacer(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancel()
	if err := p.Wait(ctx); err != context.Canceled {
		t.Errorf("Wait after cancel = %v, want context.Canceled", err)
	}
}
