package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// --- fakes ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeStore struct {
	mu             sync.Mutex
	rounds         []*Round
	playingMarked  []string
	finalized      map[string]float64
	betsInserted   []*Bet
	betsSettled    map[string]int64
	staleFinalized int64
	staleCutoffs   []time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{finalized: map[string]float64{}, betsSettled: map[string]int64{}}
}

func (s *fakeStore) InsertRound(_ context.Context, r *Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rounds = append(s.rounds, &cp)
	return nil
}

func (s *fakeStore) MarkRoundPlaying(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playingMarked = append(s.playingMarked, id)
	return nil
}

func (s *fakeStore) FinalizeRound(_ context.Context, id string, fm float64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized[id] = fm
	return nil
}

func (s *fakeStore) InsertBet(_ context.Context, b *Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.betsInserted = append(s.betsInserted, &cp)
	return nil
}

func (s *fakeStore) SettleBet(_ context.Context, betID string, _ float64, payout int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.betsSettled[betID] = payout
	return nil
}

func (s *fakeStore) ForceFinalizeStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleCutoffs = append(s.staleCutoffs, cutoff)
	n := s.staleFinalized
	s.staleFinalized = 0
	return n, nil
}

type fakeWallet struct {
	mu       sync.Mutex
	balances map[string]int64
	debits   int
	credits  int
	failNext error // força o próximo débito/crédito a falhar
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: map[string]int64{}}
}

func (w *fakeWallet) Debit(_ context.Context, playerID string, cents int64, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext != nil {
		err := w.failNext
		w.failNext = nil
		return err
	}
	if w.balances[playerID] < cents {
		return ErrInsufficientFunds
	}
	w.balances[playerID] -= cents
	w.debits++
	return nil
}

func (w *fakeWallet) Credit(_ context.Context, playerID string, cents int64, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext != nil {
		err := w.failNext
		w.failNext = nil
		return err
	}
	w.balances[playerID] += cents
	w.credits++
	return nil
}

func (w *fakeWallet) balance(playerID string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[playerID]
}

type fakePublishers struct {
	mu      sync.Mutex
	frames  []events.RoundFrame
	bets    []events.BetFrame
	settled []events.RoundSettled
	placed  []events.BetPlaced
}

func (p *fakePublishers) PublishRound(_ context.Context, f events.RoundFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return nil
}

func (p *fakePublishers) PublishBet(_ context.Context, f events.BetFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bets = append(p.bets, f)
	return nil
}

func (p *fakePublishers) PublishRoundSettled(_ context.Context, e events.RoundSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled = append(p.settled, e)
	return nil
}

func (p *fakePublishers) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return nil
}

// --- harness ---

type harness struct {
	d      *Driver
	clk    *fakeClock
	store  *fakeStore
	wallet *fakeWallet
	pubs   *fakePublishers
	ctx    context.Context
}

// newHarness cria um driver com crash point fixo, relógio falso e a primeira
// rodada já aberta em betting.
func newHarness(t *testing.T, crashPoint float64) *harness {
	t.Helper()
	h := &harness{
		clk:    &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		store:  newFakeStore(),
		wallet: newFakeWallet(),
		pubs:   &fakePublishers{},
		ctx:    context.Background(),
	}
	h.d = New(zap.NewNop(), Config{
		BettingSeconds: 10,
		TickInterval:   50 * time.Millisecond,
		RestartDelay:   3 * time.Second,
		GrowthRate:     0.14,
	}, h.store, h.wallet, h.pubs, h.pubs, func() float64 { return crashPoint })
	h.d.now = h.clk.Now

	h.d.mu.Lock()
	h.d.startRound(h.ctx)
	h.d.mu.Unlock()
	return h
}

func (h *harness) tick() { h.d.tick(h.ctx) }

// beginPlaying avança o relógio além do fim das apostas e aplica o tick.
func (h *harness) beginPlaying(t *testing.T) {
	t.Helper()
	h.clk.Advance(11 * time.Second)
	h.tick()
	if got := h.d.Snapshot().Round.Phase; got != PhasePlaying {
		t.Fatalf("phase = %v, want playing", got)
	}
}

// advanceToMultiplier avança o relógio até MultiplierAt atingir o alvo.
// rate 0.14: target = 1 + elapsed*0.14.
func (h *harness) advanceToMultiplier(target float64) {
	elapsed := (target - 1.0) / 0.14
	start := h.d.Snapshot().Round.PlayStartedAt
	h.clk.mu.Lock()
	h.clk.t = start.Add(time.Duration(elapsed * float64(time.Second)))
	h.clk.mu.Unlock()
}

// --- testes ---

func TestRoundLifecycle(t *testing.T) {
	h := newHarness(t, 2.50)

	snap := h.d.Snapshot()
	if snap.Round.Phase != PhaseBetting {
		t.Fatalf("initial phase = %v, want betting", snap.Round.Phase)
	}
	if snap.Round.CrashPoint != 2.50 {
		t.Fatalf("crash point = %v, want 2.50", snap.Round.CrashPoint)
	}
	firstID := snap.Round.ID

	h.beginPlaying(t)

	// multiplicador sobe mas ainda não alcançou o crash point
	h.advanceToMultiplier(2.00)
	h.tick()
	snap = h.d.Snapshot()
	if snap.Round.Phase != PhasePlaying {
		t.Fatalf("phase = %v, want playing", snap.Round.Phase)
	}
	if snap.Round.Multiplier != 2.00 {
		t.Fatalf("multiplier = %v, want 2.00", snap.Round.Multiplier)
	}

	// tick além do crash point encerra no crash point, não no valor estourado
	h.advanceToMultiplier(2.57)
	h.tick()
	snap = h.d.Snapshot()
	if snap.Round.Phase != PhaseCrashed {
		t.Fatalf("phase = %v, want crashed", snap.Round.Phase)
	}
	if snap.Round.FinalMultiplier != 2.50 {
		t.Fatalf("final multiplier = %v, want crash point 2.50", snap.Round.FinalMultiplier)
	}
	if fm, ok := h.store.finalized[firstID]; !ok || fm != 2.50 {
		t.Fatalf("round not finalized in store (fm=%v ok=%v)", fm, ok)
	}

	// após o atraso fixo, nova rodada em betting com totais zerados
	h.clk.Advance(4 * time.Second)
	h.tick()
	snap = h.d.Snapshot()
	if snap.Round.Phase != PhaseBetting {
		t.Fatalf("phase = %v, want betting (new round)", snap.Round.Phase)
	}
	if snap.Round.ID == firstID {
		t.Fatal("new round reused previous round id")
	}
	if snap.Totals.Bets != 0 || snap.Totals.StakeCents != 0 {
		t.Fatalf("totals not reset: %+v", snap.Totals)
	}
}

func TestPlaceBetPhaseGating(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 10_000

	h.beginPlaying(t)
	if _, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("bet during playing: err = %v, want ErrInvalidPhase", err)
	}

	h.advanceToMultiplier(3.00)
	h.tick()
	if _, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("bet during crashed: err = %v, want ErrInvalidPhase", err)
	}
}

func TestCashOutPhaseGating(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 10_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}

	// betting: cashout ainda não permitido
	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 0); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("cashout during betting: err = %v, want ErrInvalidPhase", err)
	}

	h.beginPlaying(t)
	h.advanceToMultiplier(3.00)
	h.tick() // crashed

	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 0); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("cashout after crash: err = %v, want ErrInvalidPhase", err)
	}
}

func TestDuplicateBetConcurrent(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 1_000_000

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	okCount, dupCount := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, ErrDuplicateBet):
				dupCount++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if okCount != 1 || dupCount != attempts-1 {
		t.Fatalf("ok=%d dup=%d, want 1/%d", okCount, dupCount, attempts-1)
	}
	if got := h.wallet.balance("p1"); got != 1_000_000-1000 {
		t.Fatalf("balance = %d, only one stake may be debited", got)
	}
	if h.d.Snapshot().Totals.Bets != 1 {
		t.Fatalf("totals.Bets = %d, want 1", h.d.Snapshot().Totals.Bets)
	}
}

func TestCashOutIdempotentConcurrent(t *testing.T) {
	h := newHarness(t, 5.00)
	h.wallet.balances["p1"] = 10_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	h.beginPlaying(t)
	h.advanceToMultiplier(2.00)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	okCount, settledCount := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.d.CashOut(h.ctx, "p1", bet.ID, 2.00)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, ErrAlreadySettled):
				settledCount++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if okCount != 1 || settledCount != attempts-1 {
		t.Fatalf("ok=%d settled=%d, want 1/%d", okCount, settledCount, attempts-1)
	}
	// um único crédito: 10000 - 1000 + 2000
	if got := h.wallet.balance("p1"); got != 11_000 {
		t.Fatalf("balance = %d, want 11000", got)
	}
}

// Cenário A: crash point 2.50, aposta de 10.00 durante betting, cashout em
// 1.80 -> prêmio de 18.00 creditado.
func TestCashOutScenarioA(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 5_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "Player One", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	if got := h.wallet.balance("p1"); got != 4_000 {
		t.Fatalf("stake not debited at placement: balance = %d", got)
	}

	h.beginPlaying(t)
	h.advanceToMultiplier(1.80)

	settled, err := h.d.CashOut(h.ctx, "p1", bet.ID, 0) // sem multiplicador do cliente
	if err != nil {
		t.Fatalf("cashout: %v", err)
	}
	if settled.CashoutMultiplier != 1.80 {
		t.Fatalf("cashout multiplier = %v, want 1.80", settled.CashoutMultiplier)
	}
	if settled.PayoutCents != 1800 {
		t.Fatalf("payout = %d, want 1800", settled.PayoutCents)
	}
	if got := h.wallet.balance("p1"); got != 5_800 {
		t.Fatalf("balance after cashout = %d, want 5800", got)
	}
	if h.store.betsSettled[bet.ID] != 1800 {
		t.Fatalf("settle not persisted: %v", h.store.betsSettled)
	}
}

// Cenário B: jogador nunca faz cashout. A rodada crasha, a aposta permanece
// com status playing (perda implícita), nada é creditado nem devolvido.
func TestCrashImplicitLossScenarioB(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 5_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	h.beginPlaying(t)
	h.advanceToMultiplier(2.50)
	h.tick()

	snap := h.d.Snapshot()
	if snap.Round.Phase != PhaseCrashed || snap.Round.FinalMultiplier != 2.50 {
		t.Fatalf("round = %+v, want crashed at 2.50", snap.Round)
	}
	if got := h.wallet.balance("p1"); got != 4_000 {
		t.Fatalf("balance = %d; stake must not be refunded nor paid", got)
	}

	// conservação: o evento de liquidação carrega a aposta ainda "playing"
	if len(h.pubs.settled) != 1 {
		t.Fatalf("settled events = %d, want 1", len(h.pubs.settled))
	}
	ev := h.pubs.settled[0]
	if len(ev.Bets) != 1 || ev.Bets[0].BetID != bet.ID {
		t.Fatalf("settled bets = %+v", ev.Bets)
	}
	if ev.Bets[0].Status != string(BetPlaying) || ev.Bets[0].PayoutCents != 0 {
		t.Fatalf("lost bet must stay playing with zero payout, got %+v", ev.Bets[0])
	}
	if ev.FinalMultiplier != 2.50 || ev.TotalStakeCents != 1000 {
		t.Fatalf("settled event = %+v", ev)
	}
}

func TestCashOutAboveCrashPointRejected(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 5_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	h.beginPlaying(t)
	h.advanceToMultiplier(1.50)

	// cliente desatualizado correndo contra o crash
	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 3.00); !errors.Is(err, ErrInvalidMultiplier) {
		t.Fatalf("err = %v, want ErrInvalidMultiplier", err)
	}
	// a aposta segue viva e liquidável no multiplicador legítimo
	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 1.50); err != nil {
		t.Fatalf("legitimate cashout after rejection: %v", err)
	}
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 500

	if _, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	snap := h.d.Snapshot()
	if snap.Totals.Bets != 0 || len(snap.Bets) != 0 {
		t.Fatalf("rejected bet must not be recorded: %+v", snap.Totals)
	}
}

func TestCashOutCreditFailureKeepsBetAlive(t *testing.T) {
	h := newHarness(t, 2.50)
	h.wallet.balances["p1"] = 5_000

	bet, err := h.d.PlaceBet(h.ctx, "p1", "P1", 1000)
	if err != nil {
		t.Fatalf("place bet: %v", err)
	}
	h.beginPlaying(t)
	h.advanceToMultiplier(1.50)

	h.wallet.failNext = errors.New("wallet down")
	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 1.50); err == nil {
		t.Fatal("cashout must fail when credit fails")
	}

	snap := h.d.Snapshot()
	if snap.Bets[0].Status != BetPlaying {
		t.Fatalf("bet status = %v; failed credit must not settle the bet", snap.Bets[0].Status)
	}
	if _, err := h.d.CashOut(h.ctx, "p1", bet.ID, 1.50); err != nil {
		t.Fatalf("retry after wallet recovery: %v", err)
	}
}

func TestCashOutUnknownBet(t *testing.T) {
	h := newHarness(t, 2.50)
	h.beginPlaying(t)

	if _, err := h.d.CashOut(h.ctx, "p1", "no-such-bet", 1.10); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("err = %v, want ErrBetNotFound", err)
	}
}

func TestCountdownFramesDecrease(t *testing.T) {
	h := newHarness(t, 2.50)

	for i := 0; i < 12; i++ {
		h.clk.Advance(time.Second)
		h.tick()
	}

	var countdowns []int
	h.pubs.mu.Lock()
	for _, f := range h.pubs.frames {
		if f.Phase == string(PhaseBetting) && f.CountdownSeconds != nil {
			countdowns = append(countdowns, *f.CountdownSeconds)
		}
	}
	h.pubs.mu.Unlock()

	if len(countdowns) < 2 {
		t.Fatalf("countdown frames = %v, want decreasing sequence", countdowns)
	}
	for i := 1; i < len(countdowns); i++ {
		if countdowns[i] >= countdowns[i-1] {
			t.Fatalf("countdown not strictly decreasing: %v", countdowns)
		}
	}
}

func TestCrashPointHiddenUntilCrash(t *testing.T) {
	h := newHarness(t, 2.50)
	h.beginPlaying(t)
	h.advanceToMultiplier(1.50)
	h.tick()

	h.pubs.mu.Lock()
	defer h.pubs.mu.Unlock()
	for _, f := range h.pubs.frames {
		if f.Phase != string(PhaseCrashed) && f.CrashPoint != nil {
			t.Fatalf("crash point leaked in %s frame", f.Phase)
		}
	}
}

func TestStartupHealFinalizesLeftovers(t *testing.T) {
	h := newHarness(t, 2.50)
	h.store.staleFinalized = 2

	h.d.healStartup(h.ctx)

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if len(h.store.staleCutoffs) == 0 {
		t.Fatal("healStartup must sweep stale active rounds")
	}
	// na partida o corte é "agora": qualquer rodada ativa órfã é encerrada
	if got := h.store.staleCutoffs[len(h.store.staleCutoffs)-1]; !got.Equal(h.clk.Now()) {
		t.Fatalf("cutoff = %v, want now (%v)", got, h.clk.Now())
	}
}
