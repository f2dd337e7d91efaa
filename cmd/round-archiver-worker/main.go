package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/round-archiver/cache"
	"github.com/nayaplay/crash-platform-poc/internal/round-archiver/consumer"
	"github.com/nayaplay/crash-platform-poc/internal/round-archiver/repository"
	sharedcache "github.com/nayaplay/crash-platform-poc/internal/shared/cache"
	"github.com/nayaplay/crash-platform-poc/internal/shared/config"
	"github.com/nayaplay/crash-platform-poc/internal/shared/db"
	sharedkafka "github.com/nayaplay/crash-platform-poc/internal/shared/kafka"
	"github.com/nayaplay/crash-platform-poc/internal/shared/logger"
	"github.com/nayaplay/crash-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("round-archiver-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Inicializa dependências: Postgres e Redis
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

	// Cache de rodadas recentes (mesma chave lida pelo crash-feed-service)
	rcache := cache.NewRedisCache(redisClient, 5*time.Minute)
	repo := repository.NewPostgresRepo(pg)

	// Consumer Kafka (consumer group round-archiver) e writer de dead-letter
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "round-archiver")
	defer reader.Close()
	dlq := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettledDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "archiver_rounds_persisted_total", Help: "rodadas persistidas (histórico+leaderboard)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "archiver_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repo,
		Cache:       rcache,
		DLQ:         dlq,
		RecentLimit: 20,
		OnConsumed:  func() { consumed.Inc() },
		OnPersist:   func() { persist.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("round-archiver started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("round-archiver stopped")
}
