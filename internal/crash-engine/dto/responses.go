package dto

type PlaceBetResponse struct {
	BetID   string `json:"betId"`
	RoundID string `json:"roundId"`
	Status  string `json:"status"`
}

type CashOutResponse struct {
	BetID       string  `json:"betId"`
	Multiplier  float64 `json:"multiplier"`
	PayoutCents int64   `json:"payout_cents"`
}

// RoundResponse é o snapshot da rodada corrente. CrashPoint só aparece após
// o crash.
type RoundResponse struct {
	RoundID          string     `json:"roundId"`
	Phase            string     `json:"phase"`
	CountdownSeconds *int       `json:"countdown_seconds,omitempty"`
	Multiplier       *float64   `json:"multiplier,omitempty"`
	FinalMultiplier  *float64   `json:"final_multiplier,omitempty"`
	CrashPoint       *float64   `json:"crash_point,omitempty"`
	TotalBets        int        `json:"total_bets"`
	TotalStakeCents  int64      `json:"total_stake_cents"`
	Bets             []BetEntry `json:"bets"`
}

type BetEntry struct {
	PlayerID          string   `json:"playerId"`
	DisplayName       string   `json:"displayName"`
	StakeCents        int64    `json:"stake_cents"`
	Status            string   `json:"status"`
	CashoutMultiplier *float64 `json:"cashout_multiplier,omitempty"`
	PayoutCents       *int64   `json:"payout_cents,omitempty"`
}
