package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/cache"
	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/dto"
	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/repo"
)

// API expõe os endpoints REST de leitura do feed do crash
// Utiliza um repositório de leitura (Postgres) e cache (Redis)
type API struct {
	ReadRepo *repo.ReadRepo // acesso ao banco de dados
	Cache    *cache.Cache   // cache dos últimos crashes
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/rounds/recent", a.recentRounds)     // Faixa de últimos crashes
	r.Get("/v1/rounds/active/bets", a.activeBets)  // Painel de jogadores da rodada ativa
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recentRounds retorna os últimos multiplicadores finais, preferencialmente
// do cache mantido pelo round-archiver-worker
func (a *API) recentRounds(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var fromCache []dto.RecentRound
	if ok, _ := a.Cache.GetRecent(r.Context(), &fromCache); ok && len(fromCache) >= limit {
		writeJSON(w, http.StatusOK, fromCache[:limit])
		return
	}

	rounds, err := a.ReadRepo.RecentRounds(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetRecent(r.Context(), rounds, 15*time.Second)
	writeJSON(w, http.StatusOK, rounds)
}

// activeBets retorna a lista de apostas da rodada ativa
func (a *API) activeBets(w http.ResponseWriter, r *http.Request) {
	bets, err := a.ReadRepo.ActiveRoundBets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if bets == nil {
		bets = []dto.ActiveBet{}
	}
	writeJSON(w, http.StatusOK, bets)
}
