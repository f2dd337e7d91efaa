package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

const ChannelRoundBroadcast = "crash_round_broadcast"

// Payload padrão para o WS do crash-feed-service: cada mensagem carrega o
// stream de destino ("rounds" ou "bets") e o quadro serializado.
type StreamUpdate struct {
	Stream  string      `json:"stream"`
	Payload interface{} `json:"payload"`
}

type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelRoundBroadcast
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishRound(ctx context.Context, f events.RoundFrame) error {
	return b.publish(ctx, StreamUpdate{Stream: "rounds", Payload: f})
}

func (b *RedisBroadcaster) PublishBet(ctx context.Context, f events.BetFrame) error {
	return b.publish(ctx, StreamUpdate{Stream: "bets", Payload: f})
}

func (b *RedisBroadcaster) publish(ctx context.Context, u StreamUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
