package events

import "time"

// Evento publicado no tópico "round_settled" quando uma rodada termina.
// Carrega o snapshot completo das apostas para os consumidores de histórico
// e leaderboard; apostas sem cashout seguem com status "playing" (perda
// implícita, nenhum payout).
type RoundSettled struct {
	RoundID         string       `json:"round_id"`
	CrashPoint      float64      `json:"crash_point"`
	FinalMultiplier float64      `json:"final_multiplier"`
	StartedAt       time.Time    `json:"started_at"`
	EndedAt         time.Time    `json:"ended_at"`
	TotalBets       int          `json:"total_bets"`
	TotalStakeCents int64        `json:"total_stake_cents"`
	Bets            []SettledBet `json:"bets"`
}

type SettledBet struct {
	BetID             string  `json:"bet_id"`
	PlayerID          string  `json:"player_id"`
	DisplayName       string  `json:"display_name"`
	StakeCents        int64   `json:"stake_cents"`
	Status            string  `json:"status"` // "cashed_out" | "playing"
	CashoutMultiplier float64 `json:"cashout_multiplier,omitempty"`
	PayoutCents       int64   `json:"payout_cents,omitempty"`
}
