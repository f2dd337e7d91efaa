package engine

import "errors"

// Erros terminais por requisição: nenhum deles é retentado internamente,
// já que repetir uma aposta duplicada ou um cashout liquidado nunca é correto.
var (
	ErrInvalidPhase      = errors.New("round is not accepting this action")
	ErrDuplicateBet      = errors.New("bet already placed for this round")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBetNotFound       = errors.New("bet not found")
	ErrAlreadySettled    = errors.New("bet already settled")
	ErrInvalidMultiplier = errors.New("multiplier no longer available")
)
