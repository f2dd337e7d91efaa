package game

import "math"

// DefaultGrowthRate é o crescimento do multiplicador por segundo de jogo.
const DefaultGrowthRate = 0.14

// MultiplierAt calcula o multiplicador corrente a partir do tempo decorrido
// desde o início da fase "playing". A função é pura e derivada do relógio de
// parede, nunca acumulada tick a tick: um observador que perdeu ticks
// recalcula o valor exato só com playStartedAt e a taxa fixa.
// Retorna sempre >= 1.00, monotônico em elapsedSeconds, 2 casas decimais.
func MultiplierAt(elapsedSeconds, ratePerSecond float64) float64 {
	if elapsedSeconds <= 0 {
		return 1.0
	}
	m := 1.0 + elapsedSeconds*ratePerSecond
	return math.Round(m*100) / 100
}

// PayoutCents calcula o prêmio de um cashout em centavos.
func PayoutCents(stakeCents int64, multiplier float64) int64 {
	return int64(math.Round(float64(stakeCents) * multiplier))
}
