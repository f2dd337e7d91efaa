package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// RedisCache mantém no Redis a lista de crash points recentes servida pelo feed
// Client: cliente Redis
// TTL: tempo de expiração do registro
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

const keyRecent = "crash:rounds:recent"

// recentEntry segue o mesmo formato JSON servido pela API do feed
type recentEntry struct {
	RoundID         string  `json:"roundId"`
	FinalMultiplier float64 `json:"final_multiplier"`
	EndedAt         string  `json:"ended_at"`
}

// SetRecent substitui a lista de rodadas recentes no Redis
func (r *RedisCache) SetRecent(ctx context.Context, rounds []events.RoundSettled) error {
	entries := make([]recentEntry, 0, len(rounds))
	for _, ev := range rounds {
		entries = append(entries, recentEntry{
			RoundID:         ev.RoundID,
			FinalMultiplier: ev.FinalMultiplier,
			EndedAt:         ev.EndedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, keyRecent, b, r.TTL).Err()
}
