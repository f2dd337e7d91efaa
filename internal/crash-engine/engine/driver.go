package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/game"
	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// Store persiste rodadas e apostas. A memória do driver é a autoridade;
// o banco serve histórico, o feed de leitura e a varredura de recuperação.
type Store interface {
	InsertRound(ctx context.Context, r *Round) error
	MarkRoundPlaying(ctx context.Context, roundID string, startedAt time.Time) error
	FinalizeRound(ctx context.Context, roundID string, finalMultiplier float64, endedAt time.Time) error
	InsertBet(ctx context.Context, b *Bet) error
	SettleBet(ctx context.Context, betID string, multiplier float64, payoutCents int64, at time.Time) error
	ForceFinalizeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Wallet é o colaborador de saldo. Debit devolve ErrInsufficientFunds quando
// a carteira rejeita o débito.
type Wallet interface {
	Debit(ctx context.Context, playerID string, amountCents int64, externalRef string) error
	Credit(ctx context.Context, playerID string, amountCents int64, externalRef string) error
}

// FramePublisher publica quadros de rodada e de aposta para os observadores
// (Redis Pub/Sub -> hub WebSocket do crash-feed-service).
type FramePublisher interface {
	PublishRound(ctx context.Context, f events.RoundFrame) error
	PublishBet(ctx context.Context, f events.BetFrame) error
}

// EventPublisher publica eventos de domínio no Kafka.
type EventPublisher interface {
	PublishRoundSettled(ctx context.Context, e events.RoundSettled) error
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// Config são os parâmetros de tempo e crescimento do driver.
type Config struct {
	BettingSeconds int
	TickInterval   time.Duration
	RestartDelay   time.Duration
	GrowthRate     float64
}

func (c Config) withDefaults() Config {
	if c.BettingSeconds <= 0 {
		c.BettingSeconds = 10
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 50 * time.Millisecond
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = 3 * time.Second
	}
	if c.GrowthRate <= 0 {
		c.GrowthRate = game.DefaultGrowthRate
	}
	return c
}

// Driver é o único escritor autorizado da rodada ativa. Exatamente uma
// instância por deployment dirige as transições de fase; qualquer número de
// observadores recalcula o multiplicador localmente a partir de PlayStartedAt.
type Driver struct {
	log     *zap.Logger
	cfg     Config
	store   Store
	wallet  Wallet
	frames  FramePublisher
	events  EventPublisher
	sample  func() float64
	now     func() time.Time

	// Callbacks de métricas (opcionais), ligadas no main
	OnRoundStarted func()
	OnRoundCrashed func()
	OnBetPlaced    func()
	OnCashout      func()

	mu            sync.Mutex
	round         *Round
	bets          map[string]*Bet   // betID -> aposta da rodada corrente
	betByPlayer   map[string]string // playerID -> betID (garante 1 aposta por jogador)
	totals        Totals
	lastCountdown int
}

// New cria o driver. sample normalmente é (*game.Sampler).CrashPoint.
func New(log *zap.Logger, cfg Config, store Store, wallet Wallet, frames FramePublisher, evp EventPublisher, sample func() float64) *Driver {
	return &Driver{
		log:    log,
		cfg:    cfg.withDefaults(),
		store:  store,
		wallet: wallet,
		frames: frames,
		events: evp,
		sample: sample,
		now:    time.Now,
	}
}

// Run executa o loop do driver até o contexto ser cancelado. Na partida,
// finaliza qualquer rodada ativa deixada por um processo anterior antes de
// criar a primeira rodada nova: nunca pode haver mais de uma rodada ativa.
func (d *Driver) Run(ctx context.Context) error {
	d.healStartup(ctx)

	d.mu.Lock()
	d.startRound(ctx)
	d.mu.Unlock()

	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// healStartup força o encerramento de rodadas ativas órfãs de execuções
// anteriores. Idempotente: finalizar uma rodada já finalizada é no-op.
func (d *Driver) healStartup(ctx context.Context) {
	n, err := d.store.ForceFinalizeStale(ctx, d.now())
	if err != nil {
		d.log.Warn("startup heal failed", zap.Error(err))
		return
	}
	if n > 0 {
		d.log.Warn("stale active rounds force-finalized at startup", zap.Int64("count", n))
	}
}

// tick avança a máquina de estados em um passo de relógio. Falhas de escrita
// aqui são registradas e retentadas no próximo tick (ou reparadas pela
// varredura); o relógio nunca pode travar por causa delas.
func (d *Driver) tick(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	switch d.round.Phase {
	case PhaseBetting:
		if !now.Before(d.round.BetsCloseAt) {
			d.beginPlaying(ctx, now)
			return
		}
		// publica só quando o segundo inteiro muda, para não inundar o canal
		if cd := d.round.CountdownSeconds(now); cd != d.lastCountdown {
			d.lastCountdown = cd
			d.publishRoundFrame(ctx, now)
		}

	case PhasePlaying:
		m := game.MultiplierAt(now.Sub(d.round.PlayStartedAt).Seconds(), d.cfg.GrowthRate)
		if m >= d.round.CrashPoint {
			d.crash(ctx, now)
			return
		}
		d.round.Multiplier = m
		d.publishRoundFrame(ctx, now)

	case PhaseCrashed:
		if !now.Before(d.round.NextRoundAt) {
			d.startRound(ctx)
		}
	}
}

// startRound sorteia o crash point e abre uma nova rodada em betting.
// Chamada com d.mu já em posse.
func (d *Driver) startRound(ctx context.Context) {
	now := d.now()
	r := &Round{
		ID:          uuid.NewString(),
		Phase:       PhaseBetting,
		CrashPoint:  d.sample(),
		Multiplier:  1.0,
		CreatedAt:   now,
		BetsCloseAt: now.Add(time.Duration(d.cfg.BettingSeconds) * time.Second),
	}
	d.round = r
	d.bets = make(map[string]*Bet)
	d.betByPlayer = make(map[string]string)
	d.totals = Totals{}
	d.lastCountdown = -1

	if err := d.store.InsertRound(ctx, r); err != nil {
		d.log.Warn("round insert failed", zap.String("round_id", r.ID), zap.Error(err))
	}
	if d.OnRoundStarted != nil {
		d.OnRoundStarted()
	}
	d.log.Info("round opened", zap.String("round_id", r.ID), zap.Int("betting_seconds", d.cfg.BettingSeconds))
	d.publishRoundFrame(ctx, now)
}

// beginPlaying fecha as apostas e inicia a subida do multiplicador.
// Chamada com d.mu já em posse.
func (d *Driver) beginPlaying(ctx context.Context, now time.Time) {
	r := d.round
	r.Phase = PhasePlaying
	r.PlayStartedAt = now
	r.Multiplier = 1.0

	if err := d.store.MarkRoundPlaying(ctx, r.ID, now); err != nil {
		d.log.Warn("round playing update failed", zap.String("round_id", r.ID), zap.Error(err))
	}
	d.log.Info("round playing", zap.String("round_id", r.ID), zap.Int("bets", d.totals.Bets))
	d.publishRoundFrame(ctx, now)
}

// crash encerra a rodada no crash point sorteado (não no valor possivelmente
// estourado do tick) e agenda a próxima rodada. Chamada com d.mu já em posse.
func (d *Driver) crash(ctx context.Context, now time.Time) {
	r := d.round
	r.Phase = PhaseCrashed
	r.FinalMultiplier = r.CrashPoint
	r.Multiplier = r.CrashPoint
	r.EndedAt = now
	r.NextRoundAt = now.Add(d.cfg.RestartDelay)

	if err := d.store.FinalizeRound(ctx, r.ID, r.FinalMultiplier, now); err != nil {
		// a varredura repara a linha ACTIVE deixada para trás
		d.log.Warn("round finalize failed", zap.String("round_id", r.ID), zap.Error(err))
	}
	if d.OnRoundCrashed != nil {
		d.OnRoundCrashed()
	}
	d.log.Info("round crashed",
		zap.String("round_id", r.ID),
		zap.Float64("final_multiplier", r.FinalMultiplier),
		zap.Int("bets", d.totals.Bets),
	)

	settled := events.RoundSettled{
		RoundID:         r.ID,
		CrashPoint:      r.CrashPoint,
		FinalMultiplier: r.FinalMultiplier,
		StartedAt:       r.PlayStartedAt,
		EndedAt:         now,
		TotalBets:       d.totals.Bets,
		TotalStakeCents: d.totals.StakeCents,
	}
	for _, b := range d.bets {
		settled.Bets = append(settled.Bets, events.SettledBet{
			BetID:             b.ID,
			PlayerID:          b.PlayerID,
			DisplayName:       b.DisplayName,
			StakeCents:        b.StakeCents,
			Status:            string(b.Status),
			CashoutMultiplier: b.CashoutMultiplier,
			PayoutCents:       b.PayoutCents,
		})
	}
	if err := d.events.PublishRoundSettled(ctx, settled); err != nil {
		d.log.Warn("round_settled publish failed", zap.String("round_id", r.ID), zap.Error(err))
	}
	d.publishRoundFrame(ctx, now)
}

// publishRoundFrame monta e publica o quadro corrente. CrashPoint só é
// revelado após o crash. Chamada com d.mu já em posse.
func (d *Driver) publishRoundFrame(ctx context.Context, now time.Time) {
	r := d.round
	f := events.RoundFrame{
		RoundID:         r.ID,
		Phase:           string(r.Phase),
		TotalBets:       d.totals.Bets,
		TotalStakeCents: d.totals.StakeCents,
		TsUnixMs:        now.UnixMilli(),
	}
	switch r.Phase {
	case PhaseBetting:
		cd := r.CountdownSeconds(now)
		f.CountdownSeconds = &cd
	case PhasePlaying:
		m := r.Multiplier
		f.Multiplier = &m
	case PhaseCrashed:
		fm := r.FinalMultiplier
		cp := r.CrashPoint
		f.FinalMultiplier = &fm
		f.CrashPoint = &cp
	}
	if err := d.frames.PublishRound(ctx, f); err != nil {
		d.log.Warn("round frame publish failed", zap.Error(err))
	}
}

// Snapshot devolve uma cópia do estado corrente para leitura via API.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.round == nil {
		return Snapshot{}
	}
	s := Snapshot{Round: *d.round, Totals: d.totals}
	for _, b := range d.bets {
		s.Bets = append(s.Bets, *b)
	}
	return s
}
