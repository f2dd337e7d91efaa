package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper é a tarefa de fundo que finaliza rodadas presas em status ativo
// além do tempo limite (driver que caiu sem encerrar a rodada). Independente
// do caminho normal de crash e idempotente: finalizar uma rodada já
// finalizada não faz nada.
type Sweeper struct {
	Log      *zap.Logger
	Store    Store
	Interval time.Duration // frequência da varredura
	Timeout  time.Duration // idade mínima de uma rodada ativa para ser considerada presa

	now func() time.Time
}

// Run executa a varredura periódica até o contexto ser cancelado.
func (s *Sweeper) Run(ctx context.Context) {
	if s.now == nil {
		s.now = time.Now
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.Timeout)
	n, err := s.Store.ForceFinalizeStale(ctx, cutoff)
	if err != nil {
		s.Log.Warn("stuck round sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		// condição interna; jogadores nunca veem este estado
		s.Log.Warn("stuck rounds force-finalized", zap.Int64("count", n))
	}
}
