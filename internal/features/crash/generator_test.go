package crash_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"gifts-wheel/internal/features/crash"
)

func TestDrawCrashPointBounds(t *testing.T) {
	gen := crash.NewGenerator(rand.New(rand.NewSource(1)))

	for i := 0; i < 100_000; i++ {
		point := gen.DrawCrashPoint()
		if point < 1.01 || point >= 10.0 {
			t.Fatalf("точка краша вне диапазона: %f", point)
		}
	}
}

func TestDrawCrashPointDistribution(t *testing.T) {
	gen := crash.NewGenerator(rand.New(rand.NewSource(42)))

	const trials = 100_000
	var common, mid, high int
	for i := 0; i < trials; i++ {
		point := gen.DrawCrashPoint()
		switch {
		case point < 1.41:
			common++
		case point < 3.0:
			mid++
		default:
			high++
		}
	}

	// Ярусы: 99% / 0.9% / 0.1%, границы с запасом на дисперсию
	if ratio := float64(common) / trials; ratio < 0.985 {
		t.Errorf("нижний ярус: %.4f, ожидалось ≈ 0.99", ratio)
	}
	if ratio := float64(high) / trials; ratio > 0.005 {
		t.Errorf("верхний ярус: %.4f, ожидалось ≈ 0.001", ratio)
	}
}

func TestMultiplierAt(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rate := 0.2

	cases := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1.0},
		{1 * time.Second, 1.2},
		{5 * time.Second, 2.0},
		{10 * time.Second, 3.0},
	}
	for _, c := range cases {
		got := crash.MultiplierAt(start, start.Add(c.elapsed), rate)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("MultiplierAt(+%v) = %f, ожидалось %f", c.elapsed, got, c.want)
		}
	}

	// Часы не должны давать множитель меньше 1
	if got := crash.MultiplierAt(start, start.Add(-time.Second), rate); got != 1.0 {
		t.Errorf("отрицательное время: %f", got)
	}
}

func TestCrashTimeInvertsMultiplier(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rate := 0.2

	for _, point := range []float64{1.01, 1.41, 2.0, 3.0, 9.99} {
		at := crash.CrashTime(start, point, rate)
		got := crash.MultiplierAt(start, at, rate)
		if math.Abs(got-point) > 1e-6 {
			t.Errorf("CrashTime(%f): множитель в момент краша %f", point, got)
		}
	}
}

func TestCrashTimeOrdering(t *testing.T) {
	start := time.Now()
	early := crash.CrashTime(start, 1.2, 0.2)
	late := crash.CrashTime(start, 3.0, 0.2)
	if !early.Before(late) {
		t.Error("большая точка краша должна наступать позже")
	}
	if early.Sub(start) != time.Second {
		t.Errorf("точка 1.2 при rate 0.2 — через 1s, получено %v", early.Sub(start))
	}
}
