package engine

import (
	"math"
	"time"
)

// Phase é a fase corrente da rodada. Transições permitidas:
// betting -> playing -> crashed -> (nova rodada) betting
type Phase string

const (
	PhaseBetting Phase = "betting"
	PhasePlaying Phase = "playing"
	PhaseCrashed Phase = "crashed"
)

// Round é a rodada mantida em memória pelo driver. O driver é o único
// escritor; todo acesso passa pelo mutex do Driver.
type Round struct {
	ID              string
	Phase           Phase
	CrashPoint      float64 // sorteado na criação, secreto até o crash
	Multiplier      float64
	CreatedAt       time.Time
	BetsCloseAt     time.Time // fim da fase de apostas
	PlayStartedAt   time.Time // zero até a fase playing
	EndedAt         time.Time // zero até o crash
	FinalMultiplier float64   // igual ao CrashPoint após o crash
	NextRoundAt     time.Time // momento de criar a próxima rodada
}

// CountdownSeconds retorna os segundos restantes da fase de apostas.
func (r *Round) CountdownSeconds(now time.Time) int {
	if r.Phase != PhaseBetting {
		return 0
	}
	left := r.BetsCloseAt.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

// BetStatus é o status de uma aposta. Uma aposta só transiciona
// playing -> cashed_out; nunca o inverso. Ausência de cashed_out após o
// crash significa perda implícita.
type BetStatus string

const (
	BetPlaying   BetStatus = "playing"
	BetCashedOut BetStatus = "cashed_out"
)

// Bet é uma aposta de um jogador contra a rodada corrente.
type Bet struct {
	ID                string
	RoundID           string
	PlayerID          string
	DisplayName       string
	StakeCents        int64
	Status            BetStatus
	CashoutMultiplier float64
	PayoutCents       int64
	PlacedAt          time.Time
	CashedOutAt       time.Time
}

// Totals é a visão agregada da rodada ativa, usada apenas para exibição.
type Totals struct {
	Bets       int
	StakeCents int64
}

// Snapshot é uma cópia consistente do estado corrente do driver para leitura.
type Snapshot struct {
	Round  Round
	Totals Totals
	Bets   []Bet
}
