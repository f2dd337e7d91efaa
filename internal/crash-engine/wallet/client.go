package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/engine"
	walletdto "github.com/nayaplay/crash-platform-poc/internal/crash-engine/wallet/dto"
)

// Client fala com o wallet-service (colaborador de saldo).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Debit debita o valor da carteira do jogador, idempotente por externalRef.
// Converte a rejeição por saldo (409) no erro de domínio do engine.
func (c *Client) Debit(ctx context.Context, playerID string, amountCents int64, externalRef string) error {
	status, err := c.post(ctx, "/wallet/debit", walletdto.DebitRequest{
		UserID:      playerID,
		AmountCents: amountCents,
		ExternalRef: externalRef,
	})
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return engine.ErrInsufficientFunds
	}
	if status >= 300 {
		return fmt.Errorf("wallet debit http %d", status)
	}
	return nil
}

// Credit credita o prêmio na carteira do jogador, idempotente por externalRef.
func (c *Client) Credit(ctx context.Context, playerID string, amountCents int64, externalRef string) error {
	status, err := c.post(ctx, "/wallet/credit", walletdto.CreditRequest{
		UserID:      playerID,
		AmountCents: amountCents,
		ExternalRef: externalRef,
	})
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("wallet credit http %d", status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	return res.StatusCode, nil
}
