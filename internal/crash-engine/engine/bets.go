package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/game"
	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// PlaceBet registra uma aposta do jogador contra a rodada corrente.
// Regras: só durante betting, no máximo uma aposta por jogador por rodada,
// e o débito da carteira precisa ser aceito antes da aposta existir.
//
// O débito acontece com o lock do driver em posse, de propósito: nunca há
// estado observável "debitado sem aposta registrada" nem o inverso. O tick
// eventualmente atrasado por isso é inofensivo, o multiplicador é recalculado
// do relógio de parede e não acumulado.
func (d *Driver) PlaceBet(ctx context.Context, playerID, displayName string, stakeCents int64) (*Bet, error) {
	if playerID == "" || stakeCents <= 0 {
		return nil, fmt.Errorf("invalid bet: player %q stake %d", playerID, stakeCents)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	r := d.round
	if r == nil || r.Phase != PhaseBetting || !now.Before(r.BetsCloseAt) {
		return nil, ErrInvalidPhase
	}
	if _, exists := d.betByPlayer[playerID]; exists {
		return nil, ErrDuplicateBet
	}

	b := &Bet{
		ID:          uuid.NewString(),
		RoundID:     r.ID,
		PlayerID:    playerID,
		DisplayName: displayName,
		StakeCents:  stakeCents,
		Status:      BetPlaying,
		PlacedAt:    now,
	}

	if err := d.wallet.Debit(ctx, playerID, stakeCents, "crash-bet:"+b.ID); err != nil {
		return nil, err
	}

	d.bets[b.ID] = b
	d.betByPlayer[playerID] = b.ID
	d.totals.Bets++
	d.totals.StakeCents += stakeCents

	if err := d.store.InsertBet(ctx, b); err != nil {
		d.log.Warn("bet insert failed", zap.String("bet_id", b.ID), zap.Error(err))
	}
	if d.OnBetPlaced != nil {
		d.OnBetPlaced()
	}

	if err := d.frames.PublishBet(ctx, events.BetFrame{
		Type:        "bet_placed",
		RoundID:     r.ID,
		PlayerID:    playerID,
		DisplayName: displayName,
		StakeCents:  stakeCents,
		TsUnixMs:    now.UnixMilli(),
	}); err != nil {
		d.log.Warn("bet frame publish failed", zap.Error(err))
	}
	if err := d.events.PublishBetPlaced(ctx, events.BetPlaced{
		BetID:       b.ID,
		RoundID:     r.ID,
		PlayerID:    playerID,
		DisplayName: displayName,
		StakeCents:  stakeCents,
		DebitRef:    "crash-bet:" + b.ID,
		TsUnixMs:    now.UnixMilli(),
	}); err != nil {
		d.log.Warn("bet_placed publish failed", zap.Error(err))
	}

	return b, nil
}

// CashOut liquida a aposta no multiplicador corrente (ou no multiplicador
// enviado pelo cliente, se informado). Só durante playing; um multiplicador
// acima do crash point significa que o cliente perdeu a corrida contra o
// crash: a requisição é rejeitada, nunca paga.
func (d *Driver) CashOut(ctx context.Context, playerID, betID string, requested float64) (*Bet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	r := d.round
	if r == nil || r.Phase != PhasePlaying {
		return nil, ErrInvalidPhase
	}

	b, ok := d.bets[betID]
	if !ok || b.PlayerID != playerID {
		return nil, ErrBetNotFound
	}
	if b.Status != BetPlaying {
		return nil, ErrAlreadySettled
	}

	m := requested
	if m <= 0 {
		m = game.MultiplierAt(now.Sub(r.PlayStartedAt).Seconds(), d.cfg.GrowthRate)
	}
	if m > r.CrashPoint {
		return nil, ErrInvalidMultiplier
	}
	if m < 1.0 {
		m = 1.0
	}

	payout := game.PayoutCents(b.StakeCents, m)
	if err := d.wallet.Credit(ctx, playerID, payout, "crash-cashout:"+b.ID); err != nil {
		// crédito falhou: a aposta continua viva, nada foi liquidado
		return nil, fmt.Errorf("wallet credit: %w", err)
	}

	b.Status = BetCashedOut
	b.CashoutMultiplier = m
	b.PayoutCents = payout
	b.CashedOutAt = now

	if err := d.store.SettleBet(ctx, b.ID, m, payout, now); err != nil {
		d.log.Warn("bet settle failed", zap.String("bet_id", b.ID), zap.Error(err))
	}
	if d.OnCashout != nil {
		d.OnCashout()
	}
	d.log.Info("bet cashed out",
		zap.String("bet_id", b.ID),
		zap.Float64("multiplier", m),
		zap.Int64("payout_cents", payout),
	)

	if err := d.frames.PublishBet(ctx, events.BetFrame{
		Type:              "cashed_out",
		RoundID:           r.ID,
		PlayerID:          playerID,
		DisplayName:       b.DisplayName,
		StakeCents:        b.StakeCents,
		CashoutMultiplier: m,
		PayoutCents:       payout,
		TsUnixMs:          now.UnixMilli(),
	}); err != nil {
		d.log.Warn("cashout frame publish failed", zap.Error(err))
	}

	return b, nil
}
