package repo

import (
	"context"
	"database/sql"

	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/dto"
)

type ReadRepo struct {
	DB *sql.DB
}

func (r *ReadRepo) RecentRounds(ctx context.Context, limit int) ([]dto.RecentRound, error) {
	const q = `
		SELECT id, final_multiplier, to_char(ended_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM crash_rounds
		WHERE status = 'FINISHED' AND final_multiplier IS NOT NULL
		ORDER BY ended_at DESC
		LIMIT $1;
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.RecentRound
	for rows.Next() {
		var rr dto.RecentRound
		if err := rows.Scan(&rr.RoundID, &rr.FinalMultiplier, &rr.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (r *ReadRepo) ActiveRoundBets(ctx context.Context) ([]dto.ActiveBet, error) {
	const q = `
		SELECT b.player_id, b.display_name, b.stake_cents, b.status, b.cashout_multiplier
		FROM crash_bets b
		JOIN crash_rounds r ON r.id = b.round_id
		WHERE r.status = 'ACTIVE'
		ORDER BY b.placed_at;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.ActiveBet
	for rows.Next() {
		var b dto.ActiveBet
		var cm sql.NullFloat64
		if err := rows.Scan(&b.PlayerID, &b.DisplayName, &b.StakeCents, &b.Status, &cm); err != nil {
			return nil, err
		}
		if cm.Valid {
			b.CashoutMultiplier = &cm.Float64
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
