package game

import (
	"math"
	"testing"
)

func TestCrashPointBounds(t *testing.T) {
	s := NewSampler()
	for i := 0; i < 100_000; i++ {
		v := s.CrashPoint()
		if v < 1.0 {
			t.Fatalf("sample %d: crash point %v < 1.00", i, v)
		}
		if v >= 10.0+0.005 {
			t.Fatalf("sample %d: crash point %v above rare band", i, v)
		}
		if rounded := math.Round(v*100) / 100; rounded != v {
			t.Fatalf("sample %d: crash point %v not rounded to 2 decimals", i, v)
		}
	}
}

func TestCrashPointDistribution(t *testing.T) {
	// Pesos das bandas: 60% / 25% / 10% / 5%
	s := NewSampler()
	const rounds = 200_000
	var low, medium, high, rare int
	for i := 0; i < rounds; i++ {
		v := s.CrashPoint()
		switch {
		case v < 2.0:
			low++
		case v < 3.0:
			medium++
		case v < 5.0:
			high++
		default:
			rare++
		}
	}
	check := func(name string, n int, want float64) {
		t.Helper()
		p := float64(n) / rounds
		if math.Abs(p-want) > 0.01 {
			t.Errorf("%s band proportion %.4f, want ~%.2f (tol ±1%%)", name, p, want)
		}
	}
	check("low", low, 0.60)
	check("medium", medium, 0.25)
	check("high", high, 0.10)
	check("rare", rare, 0.05)
}

func TestCrashPointSeededDeterministic(t *testing.T) {
	a := NewSamplerSeeded(42)
	b := NewSamplerSeeded(42)
	for i := 0; i < 1000; i++ {
		if va, vb := a.CrashPoint(), b.CrashPoint(); va != vb {
			t.Fatalf("sample %d: same seed diverged, %v != %v", i, va, vb)
		}
	}
}
