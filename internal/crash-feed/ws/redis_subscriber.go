package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// PubSubChannel define o canal Redis Pub/Sub de quadros da rodada
const PubSubChannel = "crash_round_broadcast"

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa os quadros recebidos para todos os clientes WebSocket conectados
// via Hub. O serviço é observador puro: recalculações e transições de fase
// acontecem só no crash-engine-service.
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis
// - Desserializa para Update
// - Chama hub.Broadcast para enviar aos clientes inscritos no stream
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub) {
	sub := r.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var upd Update
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Printf("ws subscriber unmarshal error: %v", err)
					continue
				}
				hub.Broadcast(upd) // envia o quadro para os inscritos do stream
			}
		}
	}()
}
