package repository

import (
	"context"
	"database/sql"

	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// PostgresRepo implementa a persistência de histórico e leaderboard de rodadas
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertRoundResult grava o resultado final de uma rodada na tabela round_results
// ON CONFLICT DO NOTHING garante idempotência quando o evento é reprocessado
func (r *PostgresRepo) InsertRoundResult(ctx context.Context, ev events.RoundSettled) error {
	const q = `
		INSERT INTO round_results
		  (round_id, crash_point, final_multiplier, started_at, ended_at, total_bets, total_stake_cents)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (round_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, q,
		ev.RoundID, ev.CrashPoint, ev.FinalMultiplier,
		ev.StartedAt, ev.EndedAt, ev.TotalBets, ev.TotalStakeCents,
	)
	return err
}

// UpsertLeaderboard acumula o resultado das apostas de uma rodada no leaderboard
// por jogador: total apostado, total ganho, melhor multiplicador e rodadas jogadas
func (r *PostgresRepo) UpsertLeaderboard(ctx context.Context, ev events.RoundSettled) error {
	const q = `
		INSERT INTO leaderboard
		  (player_id, display_name, total_wagered_cents, total_won_cents, best_multiplier, rounds_played)
		VALUES
		  ($1,$2,$3,$4,$5,1)
		ON CONFLICT (player_id) DO UPDATE SET
		  display_name        = EXCLUDED.display_name,
		  total_wagered_cents = leaderboard.total_wagered_cents + EXCLUDED.total_wagered_cents,
		  total_won_cents     = leaderboard.total_won_cents + EXCLUDED.total_won_cents,
		  best_multiplier     = GREATEST(leaderboard.best_multiplier, EXCLUDED.best_multiplier),
		  rounds_played       = leaderboard.rounds_played + 1
	`
	for _, b := range ev.Bets {
		var won int64
		var mult float64
		if b.Status == "cashed_out" {
			won = b.PayoutCents
			mult = b.CashoutMultiplier
		}
		if _, err := r.DB.ExecContext(ctx, q, b.PlayerID, b.DisplayName, b.StakeCents, won, mult); err != nil {
			return err
		}
	}
	return nil
}

// RecentResults lê os últimos crash points persistidos, mais recentes primeiro
func (r *PostgresRepo) RecentResults(ctx context.Context, limit int) ([]events.RoundSettled, error) {
	const q = `
		SELECT round_id, crash_point, final_multiplier, started_at, ended_at, total_bets, total_stake_cents
		FROM round_results
		ORDER BY ended_at DESC
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.RoundSettled
	for rows.Next() {
		var ev events.RoundSettled
		if err := rows.Scan(&ev.RoundID, &ev.CrashPoint, &ev.FinalMultiplier,
			&ev.StartedAt, &ev.EndedAt, &ev.TotalBets, &ev.TotalStakeCents); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
