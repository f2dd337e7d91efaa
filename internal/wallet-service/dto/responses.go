package dto

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

type OperationResponse struct {
	OperationID  string `json:"operation_id"`
	BalanceCents int64  `json:"balance_cents"`
}
