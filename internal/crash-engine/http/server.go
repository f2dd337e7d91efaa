package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/dto"
	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/engine"
)

// Engine é a superfície do driver usada pelos handlers. Os handlers são
// adaptadores finos: toda regra de fase/duplicidade/saldo vive no driver.
type Engine interface {
	Snapshot() engine.Snapshot
	PlaceBet(ctx context.Context, playerID, displayName string, stakeCents int64) (*engine.Bet, error)
	CashOut(ctx context.Context, playerID, betID string, requested float64) (*engine.Bet, error)
}

// Server expõe a API de comandos de aposta do crash. A identidade do
// jogador chega nos headers X-Player-ID / X-Player-Name, preenchidos pela
// camada de autenticação fora deste serviço.
type Server struct {
	log *zap.Logger
	eng Engine
}

func NewServer(log *zap.Logger, eng Engine) *Server {
	return &Server{log: log, eng: eng}
}

// Router retorna o roteador HTTP com os endpoints do engine
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/round", s.getRound)            // Snapshot da rodada corrente
	r.Post("/v1/round/bets", s.placeBet)      // Coloca aposta
	r.Post("/v1/round/cashout", s.cashOut)    // Liquida aposta
	return r
}

// getRound retorna o snapshot da rodada corrente; o crash point só é
// revelado quando a rodada já terminou
func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	snap := s.eng.Snapshot()
	if snap.Round.ID == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "round not started"})
		return
	}

	resp := dto.RoundResponse{
		RoundID:         snap.Round.ID,
		Phase:           string(snap.Round.Phase),
		TotalBets:       snap.Totals.Bets,
		TotalStakeCents: snap.Totals.StakeCents,
		Bets:            make([]dto.BetEntry, 0, len(snap.Bets)),
	}
	switch snap.Round.Phase {
	case engine.PhaseBetting:
		cd := snap.Round.CountdownSeconds(time.Now())
		resp.CountdownSeconds = &cd
	case engine.PhasePlaying:
		m := snap.Round.Multiplier
		resp.Multiplier = &m
	case engine.PhaseCrashed:
		fm := snap.Round.FinalMultiplier
		cp := snap.Round.CrashPoint
		resp.FinalMultiplier = &fm
		resp.CrashPoint = &cp
	}
	for _, b := range snap.Bets {
		entry := dto.BetEntry{
			PlayerID:    b.PlayerID,
			DisplayName: b.DisplayName,
			StakeCents:  b.StakeCents,
			Status:      string(b.Status),
		}
		if b.Status == engine.BetCashedOut {
			cm := b.CashoutMultiplier
			pc := b.PayoutCents
			entry.CashoutMultiplier = &cm
			entry.PayoutCents = &pc
		}
		resp.Bets = append(resp.Bets, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// placeBet coloca uma aposta do jogador autenticado contra a rodada corrente
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	playerID, displayName, ok := identity(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "player identity required"})
		return
	}

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.StakeCents <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	bet, err := s.eng.PlaceBet(r.Context(), playerID, displayName, req.StakeCents)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:   bet.ID,
		RoundID: bet.RoundID,
		Status:  string(bet.Status),
	})
}

// cashOut liquida a aposta do jogador no multiplicador corrente
func (s *Server) cashOut(w http.ResponseWriter, r *http.Request) {
	playerID, _, ok := identity(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "player identity required"})
		return
	}

	var req dto.CashOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.BetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "betId required"})
		return
	}

	bet, err := s.eng.CashOut(r.Context(), playerID, req.BetID, req.Multiplier)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CashOutResponse{
		BetID:       bet.ID,
		Multiplier:  bet.CashoutMultiplier,
		PayoutCents: bet.PayoutCents,
	})
}

// writeError mapeia os erros de domínio para status HTTP; mensagens curtas
// e específicas, nunca retentadas pelo servidor
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidPhase):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "round is not accepting this action"})
	case errors.Is(err, engine.ErrDuplicateBet):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "bet already placed for this round"})
	case errors.Is(err, engine.ErrInsufficientFunds):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "insufficient funds"})
	case errors.Is(err, engine.ErrBetNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bet not found"})
	case errors.Is(err, engine.ErrAlreadySettled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "bet already settled"})
	case errors.Is(err, engine.ErrInvalidMultiplier):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "too late, round already crashed"})
	default:
		s.log.Error("bet command failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func identity(r *http.Request) (playerID, displayName string, ok bool) {
	playerID = r.Header.Get("X-Player-ID")
	if playerID == "" {
		return "", "", false
	}
	displayName = r.Header.Get("X-Player-Name")
	if displayName == "" {
		displayName = playerID
	}
	return playerID, displayName, true
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
