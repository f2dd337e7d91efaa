package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/shared/config"
	"github.com/nayaplay/crash-platform-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New("api-gateway", cfg.Env)
	defer log.Sync()

	// targets
	engineURL := os.Getenv("ENGINE_URL")
	if engineURL == "" {
		engineURL = "http://localhost:8081"
	}
	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		walletURL = "http://localhost:8082"
	}
	feedURL := os.Getenv("FEED_URL")
	if feedURL == "" {
		feedURL = "http://localhost:8080"
	}
	engine := rp(engineURL)
	wallet := rp(walletURL)
	feed := rp(feedURL)

	mux := http.NewServeMux()

	// rodada ativa: snapshot, apostas e cashout (ex.: /api/crash/* -> crash-engine-service)
	mux.Handle("/api/crash/", http.StripPrefix("/api/crash", engine))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api/wallet", wallet))

	// histórico e painel de apostas (ex.: /api/feed/* -> crash-feed-service)
	mux.Handle("/api/feed/", http.StripPrefix("/api/feed", feed))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Player-ID, X-Player-Name")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
