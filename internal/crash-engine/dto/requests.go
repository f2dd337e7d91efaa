package dto

type PlaceBetRequest struct {
	StakeCents int64 `json:"stake_cents"`
}

type CashOutRequest struct {
	BetID string `json:"betId"`
	// Multiplier é o multiplicador que o cliente viu; opcional. Ausente ou
	// zero, o servidor usa o multiplicador que calcula na chegada.
	Multiplier float64 `json:"multiplier,omitempty"`
}
