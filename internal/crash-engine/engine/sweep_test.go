package engine

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// Cenário D: rodada deixada ativa além do timeout (driver morto) precisa ser
// finalizada pela varredura, com corte na idade configurada.
func TestSweepForcesStaleRounds(t *testing.T) {
	store := newFakeStore()
	store.staleFinalized = 1

	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := &Sweeper{
		Log:      zap.NewNop(),
		Store:    store,
		Interval: time.Minute,
		Timeout:  5 * time.Minute,
		now:      clk.Now,
	}

	s.sweep(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.staleCutoffs) != 1 {
		t.Fatalf("sweeps = %d, want 1", len(store.staleCutoffs))
	}
	want := clk.Now().Add(-5 * time.Minute)
	if !store.staleCutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %v, want %v", store.staleCutoffs[0], want)
	}
}

// Varredura repetida sem rodadas presas é no-op silencioso.
func TestSweepIdempotent(t *testing.T) {
	store := newFakeStore()
	s := &Sweeper{
		Log:      zap.NewNop(),
		Store:    store,
		Interval: time.Minute,
		Timeout:  5 * time.Minute,
		now:      time.Now,
	}

	s.sweep(context.Background())
	s.sweep(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.staleCutoffs) != 2 {
		t.Fatalf("sweeps = %d, want 2", len(store.staleCutoffs))
	}
}
