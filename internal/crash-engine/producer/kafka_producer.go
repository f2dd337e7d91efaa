package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/nayaplay/crash-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio do engine: rodadas liquidadas
// (consumidas pelo round-archiver-worker) e apostas colocadas.
type KafkaPublisher struct {
	Settled *kafka.Writer
	Placed  *kafka.Writer
}

func NewKafkaPublisher(settled, placed *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, Placed: placed}
}

// PublishRoundSettled envia o snapshot da rodada liquidada, chaveado pelo
// roundID para manter a ordem por partição.
func (p *KafkaPublisher) PublishRoundSettled(ctx context.Context, e events.RoundSettled) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Settled.WriteMessages(ctx, kafka.Message{Key: []byte(e.RoundID), Value: b})
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Placed.WriteMessages(ctx, kafka.Message{Key: []byte(e.RoundID), Value: b})
}
