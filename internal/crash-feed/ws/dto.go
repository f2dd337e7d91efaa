package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Stream: obrigatório para subscribe/unsubscribe ("rounds" | "bets")
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	Stream string `json:"stream"` // requerido em subscribe/unsubscribe
}

// Update representa um quadro enviado para clientes WebSocket
type Update struct {
	Stream  string      `json:"stream"`
	Payload interface{} `json:"payload"`
}
