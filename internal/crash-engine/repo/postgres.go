package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/engine"
)

// Postgres implementa a persistência de rodadas e apostas do crash.
// O driver em memória é a autoridade; estas linhas alimentam o feed de
// leitura, o histórico e a varredura de recuperação.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório do engine
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InsertRound insere uma nova rodada com status ACTIVE
func (p *Postgres) InsertRound(ctx context.Context, r *engine.Round) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO crash_rounds (id, status, crash_point, created_at, bets_close_at)
		VALUES ($1,'ACTIVE',$2,$3,$4)`,
		r.ID, r.CrashPoint, r.CreatedAt, r.BetsCloseAt,
	)
	return err
}

// MarkRoundPlaying registra o início da fase playing
func (p *Postgres) MarkRoundPlaying(ctx context.Context, roundID string, startedAt time.Time) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE crash_rounds SET play_started_at=$1 WHERE id=$2`, startedAt, roundID)
	return err
}

// FinalizeRound encerra a rodada. Idempotente: só atua sobre linhas ACTIVE.
func (p *Postgres) FinalizeRound(ctx context.Context, roundID string, finalMultiplier float64, endedAt time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE crash_rounds
		SET status='FINISHED', final_multiplier=$1, ended_at=$2
		WHERE id=$3 AND status='ACTIVE'`,
		finalMultiplier, endedAt, roundID,
	)
	return err
}

// InsertBet insere uma aposta com status playing
func (p *Postgres) InsertBet(ctx context.Context, b *engine.Bet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO crash_bets (id, round_id, player_id, display_name, stake_cents, status, placed_at)
		VALUES ($1,$2,$3,$4,$5,'playing',$6)`,
		b.ID, b.RoundID, b.PlayerID, b.DisplayName, b.StakeCents, b.PlacedAt,
	)
	return err
}

// SettleBet marca a aposta como cashed_out com multiplicador e prêmio.
// A transição playing -> cashed_out acontece no máximo uma vez.
func (p *Postgres) SettleBet(ctx context.Context, betID string, multiplier float64, payoutCents int64, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE crash_bets
		SET status='cashed_out', cashout_multiplier=$1, payout_cents=$2, cashed_out_at=$3
		WHERE id=$4 AND status='playing'`,
		multiplier, payoutCents, at, betID,
	)
	return err
}

// ForceFinalizeStale encerra toda rodada ACTIVE criada antes do corte,
// usando o próprio crash point como multiplicador final. Retorna quantas
// linhas foram afetadas; zero quando não há rodada presa.
func (p *Postgres) ForceFinalizeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE crash_rounds
		SET status='FINISHED', final_multiplier=crash_point, ended_at=NOW()
		WHERE status='ACTIVE' AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
