package events

// RoundFrame é o quadro publicado no canal Redis Pub/Sub a cada mudança
// observável da rodada (contagem regressiva, multiplicador, crash).
// CrashPoint só é preenchido após o crash; antes disso é segredo do driver.
type RoundFrame struct {
	RoundID          string   `json:"round_id"`
	Phase            string   `json:"phase"` // "betting" | "playing" | "crashed"
	CountdownSeconds *int     `json:"countdown_seconds,omitempty"`
	Multiplier       *float64 `json:"multiplier,omitempty"`
	FinalMultiplier  *float64 `json:"final_multiplier,omitempty"`
	CrashPoint       *float64 `json:"crash_point,omitempty"`
	TotalBets        int      `json:"total_bets"`
	TotalStakeCents  int64    `json:"total_stake_cents"`
	TsUnixMs         int64    `json:"ts_unix_ms"`
}

// BetFrame é o quadro publicado quando uma aposta entra ou sai da rodada ativa.
type BetFrame struct {
	Type              string  `json:"type"` // "bet_placed" | "cashed_out"
	RoundID           string  `json:"round_id"`
	PlayerID          string  `json:"player_id"`
	DisplayName       string  `json:"display_name"`
	StakeCents        int64   `json:"stake_cents"`
	CashoutMultiplier float64 `json:"cashout_multiplier,omitempty"`
	PayoutCents       int64   `json:"payout_cents,omitempty"`
	TsUnixMs          int64   `json:"ts_unix_ms"`
}
