package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
)

// Faixas da distribuição do crash point. O sorteio cai em uma de quatro
// bandas com pesos fixos e é uniforme dentro da banda sorteada:
//
//	60% -> [1.1, 2.0)  banda baixa
//	25% -> [2.0, 3.0)  banda média
//	10% -> [3.0, 5.0)  banda alta
//	 5% -> [5.0, 10.0) banda rara
const (
	lowBandCut    = 0.60
	mediumBandCut = 0.85
	highBandCut   = 0.95
)

// Sampler sorteia o multiplicador terminal de uma rodada.
// Seguro para uso concorrente; cada rodada sorteia exatamente uma vez.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler cria um sampler com semente vinda do CSPRNG do sistema.
func NewSampler() *Sampler {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// fallback improvável; mantém o sampler utilizável
		return NewSamplerSeeded(1)
	}
	return NewSamplerSeeded(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewSamplerSeeded cria um sampler determinístico a partir de uma semente.
func NewSamplerSeeded(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// CrashPoint sorteia o crash point da rodada, arredondado para 2 casas.
// Sempre >= 1.00.
func (s *Sampler) CrashPoint() float64 {
	s.mu.Lock()
	r := s.rng.Float64()
	u := s.rng.Float64()
	s.mu.Unlock()

	var v float64
	switch {
	case r < lowBandCut:
		v = 1.1 + u*0.9
	case r < mediumBandCut:
		v = 2.0 + u*1.0
	case r < highBandCut:
		v = 3.0 + u*2.0
	default:
		v = 5.0 + u*5.0
	}

	v = math.Round(v*100) / 100
	if v < 1.0 {
		v = 1.0
	}
	return v
}
