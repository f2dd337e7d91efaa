package events

type BetPlaced struct {
	BetID       string `json:"bet_id"`
	RoundID     string `json:"round_id"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	StakeCents  int64  `json:"stake_cents"`
	DebitRef    string `json:"debit_ref"` // external_ref usado no débito da carteira (betID)
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
