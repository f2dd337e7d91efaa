package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/engine"
	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/game"
	ehttp "github.com/nayaplay/crash-platform-poc/internal/crash-engine/http"
	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/producer"
	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/pubsub"
	erepo "github.com/nayaplay/crash-platform-poc/internal/crash-engine/repo"
	"github.com/nayaplay/crash-platform-poc/internal/crash-engine/wallet"
	sharedcache "github.com/nayaplay/crash-platform-poc/internal/shared/cache"
	"github.com/nayaplay/crash-platform-poc/internal/shared/config"
	"github.com/nayaplay/crash-platform-poc/internal/shared/db"
	sharedkafka "github.com/nayaplay/crash-platform-poc/internal/shared/kafka"
	"github.com/nayaplay/crash-platform-poc/internal/shared/logger"
	"github.com/nayaplay/crash-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("crash-engine-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "crash-engine-service"), zap.String("env", cfg.Env))

	// Inicializa dependências: Postgres, Redis e Kafka
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

	settledWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
	defer settledWriter.Close()
	placedWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placedWriter.Close()

	// Colaboradores do driver: persistência, carteira, broadcast e eventos
	store := erepo.NewPostgres(pg)
	walletClient := wallet.New(cfg.WalletURL)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel)
	events := producer.NewKafkaPublisher(settledWriter, placedWriter)
	sampler := game.NewSampler()

	driver := engine.New(log, engine.Config{
		BettingSeconds: cfg.BettingSeconds,
		TickInterval:   cfg.TickInterval,
		RestartDelay:   cfg.RestartDelay,
		GrowthRate:     cfg.GrowthRate,
	}, store, walletClient, broadcaster, events, sampler.CrashPoint)

	// Métricas Prometheus do ciclo de vida da rodada
	roundsStarted := prometheus.NewCounter(prometheus.CounterOpts{Name: "crash_rounds_started_total", Help: "rodadas iniciadas"})
	roundsCrashed := prometheus.NewCounter(prometheus.CounterOpts{Name: "crash_rounds_crashed_total", Help: "rodadas encerradas por crash"})
	betsPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "crash_bets_placed_total", Help: "apostas aceitas"})
	cashouts := prometheus.NewCounter(prometheus.CounterOpts{Name: "crash_cashouts_total", Help: "cashouts liquidados"})
	prometheus.MustRegister(roundsStarted, roundsCrashed, betsPlaced, cashouts)

	driver.OnRoundStarted = func() { roundsStarted.Inc() }
	driver.OnRoundCrashed = func() { roundsCrashed.Inc() }
	driver.OnBetPlaced = func() { betsPlaced.Inc() }
	driver.OnCashout = func() { cashouts.Inc() }

	// Varredura de rodadas travadas, independente do caminho normal de crash
	sweeper := &engine.Sweeper{
		Log:      log,
		Store:    store,
		Interval: cfg.SweepInterval,
		Timeout:  cfg.StuckRoundAfter,
	}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal("driver stopped with error", zap.Error(err))
		}
	}()
	go sweeper.Run(ctx)

	// API pública da rodada: snapshot, apostas e cashout
	api := ehttp.NewServer(log, driver)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
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
