package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/round-archiver/cache"
	"github.com/nayaplay/crash-platform-poc/internal/round-archiver/repository"
	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// Processor consome eventos round_settled do Kafka, persiste histórico e
// leaderboard no banco e atualiza o cache de rodadas recentes
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache
	DLQ    *kafka.Writer // mensagens indecodificáveis

	RecentLimit int // tamanho da lista de rodadas recentes no cache

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		var ev events.RoundSettled
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.sendToDLQ(ctx, m)
			continue
		}

		// Persiste o resultado da rodada; reprocessamento é inofensivo (ON CONFLICT)
		if err := p.Repo.InsertRoundResult(ctx, ev); err != nil {
			p.Log.Warn("db insert round failed", zap.Error(err), zap.String("roundId", ev.RoundID))
			if p.OnError != nil {
				p.OnError("db_round")
			}
			continue
		}
		if err := p.Repo.UpsertLeaderboard(ctx, ev); err != nil {
			p.Log.Warn("db leaderboard upsert failed", zap.Error(err), zap.String("roundId", ev.RoundID))
			if p.OnError != nil {
				p.OnError("db_leaderboard")
			}
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist() // callback de métrica: persistência concluída
		}

		// Atualiza cache de rodadas recentes a partir do banco
		p.refreshRecent(ctx)
	}
}

// refreshRecent relê as últimas rodadas do banco e reescreve o cache
// Falha de cache não interrompe o consumo
func (p *Processor) refreshRecent(ctx context.Context) {
	limit := p.RecentLimit
	if limit <= 0 {
		limit = 20
	}
	rounds, err := p.Repo.RecentResults(ctx, limit)
	if err != nil {
		p.Log.Warn("recent results query failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("db_recent")
		}
		return
	}
	if err := p.Cache.SetRecent(ctx, rounds); err != nil {
		p.Log.Warn("redis set failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("cache")
		}
	}
}

// sendToDLQ encaminha a mensagem original para o tópico de dead-letter
func (p *Processor) sendToDLQ(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.DLQ.WriteMessages(wctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("dlq")
		}
	}
}
