package game

import "testing"

func TestMultiplierAtZero(t *testing.T) {
	if m := MultiplierAt(0, DefaultGrowthRate); m != 1.0 {
		t.Fatalf("MultiplierAt(0) = %v, want 1.00", m)
	}
	if m := MultiplierAt(-1, DefaultGrowthRate); m != 1.0 {
		t.Fatalf("negative elapsed must clamp to 1.00, got %v", m)
	}
}

func TestMultiplierKnownValues(t *testing.T) {
	cases := []struct {
		elapsed, rate, want float64
	}{
		{5, 0.14, 1.70},
		{10, 0.14, 2.40},
		{8, 0.1, 1.80},
		{0.5, 0.14, 1.07},
	}
	for _, c := range cases {
		if got := MultiplierAt(c.elapsed, c.rate); got != c.want {
			t.Errorf("MultiplierAt(%v, %v) = %v, want %v", c.elapsed, c.rate, got, c.want)
		}
	}
}

func TestMultiplierMonotonic(t *testing.T) {
	prev := 0.0
	for i := 0; i <= 10_000; i++ {
		elapsed := float64(i) * 0.013 // passo deliberadamente irregular em binário
		m := MultiplierAt(elapsed, DefaultGrowthRate)
		if m < prev {
			t.Fatalf("multiplier decreased at t=%v: %v < %v", elapsed, m, prev)
		}
		prev = m
	}
}

func TestPayoutCents(t *testing.T) {
	if p := PayoutCents(1000, 1.80); p != 1800 {
		t.Fatalf("payout = %d, want 1800", p)
	}
	if p := PayoutCents(333, 1.5); p != 500 {
		t.Fatalf("payout = %d, want 500 (round half up)", p)
	}
	if p := PayoutCents(1000, 1.0); p != 1000 {
		t.Fatalf("payout at 1.00 = %d, want stake back", p)
	}
}
