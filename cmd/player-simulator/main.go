package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/shared/config"
	"github.com/nayaplay/crash-platform-poc/internal/shared/logger"
	"github.com/nayaplay/crash-platform-poc/internal/shared/metrics"
	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

var (
	// Métricas Prometheus para monitoramento da carga gerada
	betsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_bets_placed_total",
		Help: "Apostas enviadas com sucesso",
	})
	cashoutsDone = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_cashouts_total",
		Help: "Cashouts liquidados com sucesso",
	})
	requestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_request_errors_total",
		Help: "Erros de requisição por operação",
	}, []string{"op"})
	wsReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ws_reconnects_total",
		Help: "Reconexões ao WebSocket do feed",
	})
)

// player é um apostador simulado com bankroll e alvo de cashout próprios
type player struct {
	id     string
	name   string
	mu     sync.Mutex
	betID  string  // aposta ativa na rodada corrente, vazio se nenhuma
	target float64 // multiplicador em que tenta o cashout
}

// simulator dirige os apostadores a partir dos quadros da rodada
type simulator struct {
	log       *zap.Logger
	engineURL string
	walletURL string
	http      *http.Client
	players   []*player
	rng       *rand.Rand

	lastRound string // rodada do último quadro "betting" processado
}

func main() {
	cfg := config.Load()
	log, err := logger.New("player-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(betsPlaced, cashoutsDone, requestErrors, wsReconnects)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	n := 5
	if v := os.Getenv("SIM_PLAYERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	sim := &simulator{
		log:       log,
		engineURL: cfg.EngineURL,
		walletURL: cfg.WalletURL,
		http:      &http.Client{Timeout: 3 * time.Second},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := 0; i < n; i++ {
		sim.players = append(sim.players, &player{
			id:   fmt.Sprintf("sim-player-%02d", i+1),
			name: fmt.Sprintf("Bot %02d", i+1),
		})
	}

	// Bankroll inicial de cada apostador
	for _, p := range sim.players {
		sim.deposit(p, 100_000) // R$ 1.000,00 em centavos
	}

	// Loop de conexão ao feed com reconexão simples
	for {
		if err := sim.followFeed(cfg.FeedWSURL); err != nil {
			log.Warn("feed connection lost", zap.Error(err))
		}
		wsReconnects.Inc()
		time.Sleep(2 * time.Second)
	}
}

// followFeed conecta ao WebSocket do crash-feed-service, assina o stream de
// rodadas e reage a cada quadro recebido
func (s *simulator) followFeed(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "stream": "rounds"}); err != nil {
		return err
	}
	s.log.Info("following feed", zap.String("url", wsURL))

	for {
		var upd struct {
			Stream  string            `json:"stream"`
			Payload events.RoundFrame `json:"payload"`
		}
		if err := conn.ReadJSON(&upd); err != nil {
			return err
		}
		if upd.Stream != "rounds" {
			continue
		}
		s.handleFrame(upd.Payload)
	}
}

// handleFrame decide as ações dos apostadores para o quadro recebido
func (s *simulator) handleFrame(f events.RoundFrame) {
	switch f.Phase {
	case "betting":
		if f.RoundID == s.lastRound {
			return // já apostou nessa rodada
		}
		s.lastRound = f.RoundID
		for _, p := range s.players {
			if s.rng.Float64() < 0.8 { // nem todo bot aposta toda rodada
				go s.placeBet(p)
			}
		}
	case "playing":
		if f.Multiplier == nil {
			return
		}
		for _, p := range s.players {
			go s.maybeCashOut(p, *f.Multiplier)
		}
	case "crashed":
		// Apostas não liquidadas perderam; limpa o estado de todos
		for _, p := range s.players {
			p.mu.Lock()
			p.betID = ""
			p.mu.Unlock()
		}
	}
}

// placeBet envia uma aposta com valor e alvo de cashout aleatórios
func (s *simulator) placeBet(p *player) {
	stake := int64((s.rng.Intn(20) + 1) * 100) // 1 a 20 reais
	body, _ := json.Marshal(map[string]int64{"stake_cents": stake})

	req, _ := http.NewRequest(http.MethodPost, s.engineURL+"/v1/round/bets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player-ID", p.id)
	req.Header.Set("X-Player-Name", p.name)

	res, err := s.http.Do(req)
	if err != nil {
		requestErrors.WithLabelValues("bet").Inc()
		return
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		requestErrors.WithLabelValues("bet").Inc()
		return
	}

	var out struct {
		BetID string `json:"betId"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		requestErrors.WithLabelValues("bet").Inc()
		return
	}

	p.mu.Lock()
	p.betID = out.BetID
	p.target = 1.1 + s.rng.Float64()*1.9 // cashout entre 1.1x e 3.0x
	p.mu.Unlock()
	betsPlaced.Inc()
}

// maybeCashOut tenta liquidar a aposta quando o multiplicador atinge o alvo
func (s *simulator) maybeCashOut(p *player, multiplier float64) {
	p.mu.Lock()
	betID := p.betID
	target := p.target
	p.mu.Unlock()
	if betID == "" || multiplier < target {
		return
	}

	body, _ := json.Marshal(map[string]any{"betId": betID, "multiplier": multiplier})
	req, _ := http.NewRequest(http.MethodPost, s.engineURL+"/v1/round/cashout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player-ID", p.id)
	req.Header.Set("X-Player-Name", p.name)

	res, err := s.http.Do(req)
	if err != nil {
		requestErrors.WithLabelValues("cashout").Inc()
		return
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	// Conflito significa que outro quadro liquidou (ou a rodada crashou) antes
	if res.StatusCode == http.StatusOK {
		cashoutsDone.Inc()
	} else if res.StatusCode != http.StatusConflict {
		requestErrors.WithLabelValues("cashout").Inc()
	}

	p.mu.Lock()
	if p.betID == betID {
		p.betID = ""
	}
	p.mu.Unlock()
}

// deposit garante bankroll inicial na carteira do apostador
// A consulta inicial cria a carteira caso ainda não exista
func (s *simulator) deposit(p *player, amountCents int64) {
	if res, err := s.http.Get(s.walletURL + "/wallet?userId=" + p.id); err == nil {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}

	body, _ := json.Marshal(map[string]any{"userId": p.id, "amount_cents": amountCents})
	res, err := s.http.Post(s.walletURL+"/wallet/deposit", "application/json", bytes.NewReader(body))
	if err != nil {
		requestErrors.WithLabelValues("deposit").Inc()
		s.log.Warn("deposit failed", zap.String("player", p.id), zap.Error(err))
		return
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	if res.StatusCode != http.StatusOK {
		requestErrors.WithLabelValues("deposit").Inc()
	}
}
