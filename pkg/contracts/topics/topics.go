package topics

const (
	// Rounds
	RoundSettled = "round_settled"

	// Bets
	BetPlaced = "bet_placed"

	// DLQs
	RoundSettledDLQ = "round_settled_dlq"
)
