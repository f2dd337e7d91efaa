package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/cache"
	fhttp "github.com/nayaplay/crash-platform-poc/internal/crash-feed/http"
	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/repo"
	"github.com/nayaplay/crash-platform-poc/internal/crash-feed/ws"
	sharedcache "github.com/nayaplay/crash-platform-poc/internal/shared/cache"
	"github.com/nayaplay/crash-platform-poc/internal/shared/config"
	"github.com/nayaplay/crash-platform-poc/internal/shared/db"
	"github.com/nayaplay/crash-platform-poc/internal/shared/logger"
	"github.com/nayaplay/crash-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("crash-feed-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "crash-feed-service"), zap.String("env", cfg.Env))

	// Conexões: Postgres (leitura de histórico) e Redis (cache + pub/sub)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hub WebSocket alimentado pelo Redis Pub/Sub do crash-engine-service
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, redisClient, hub)

	// API REST de leitura (últimos crashes e apostas da rodada ativa)
	api := &fhttp.API{
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    cache.New(redisClient),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.Handle("/", api.Router())

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}
	go func() {
		log.Info("feed listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
}
