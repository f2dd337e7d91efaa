package dto

// RecentRound é uma rodada finalizada exibida na faixa de "últimos crashes"
type RecentRound struct {
	RoundID         string  `json:"roundId"`
	FinalMultiplier float64 `json:"final_multiplier"`
	EndedAt         string  `json:"ended_at"`
}

// ActiveBet é uma entrada do painel de jogadores da rodada ativa
type ActiveBet struct {
	PlayerID          string   `json:"playerId"`
	DisplayName       string   `json:"displayName"`
	StakeCents        int64    `json:"stake_cents"`
	Status            string   `json:"status"`
	CashoutMultiplier *float64 `json:"cashout_multiplier,omitempty"`
}
