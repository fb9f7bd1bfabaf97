package wheel_test

import (
	"math/rand"
	"testing"

	"gifts-wheel/internal/features/wheel"
)

func newTestGenerator(t *testing.T, prizes []wheel.Prize, seed int64) *wheel.Generator {
	t.Helper()
	gen, err := wheel.NewGenerator(prizes, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen
}

func TestGeneratorRejectsBadWeights(t *testing.T) {
	_, err := wheel.NewGenerator([]wheel.Prize{
		{Name: "A", Chance: 50},
		{Name: "B", Chance: 30},
	}, nil)
	if err == nil {
		t.Error("веса в сумме 80 должны отклоняться")
	}

	_, err = wheel.NewGenerator([]wheel.Prize{
		{Name: "A", Chance: 110},
		{Name: "B", Chance: -10},
	}, nil)
	if err == nil {
		t.Error("отрицательный вес должен отклоняться")
	}

	_, err = wheel.NewGenerator(nil, nil)
	if err == nil {
		t.Error("пустая таблица должна отклоняться")
	}
}

func TestGeneratorDefaultTableValid(t *testing.T) {
	if _, err := wheel.NewGenerator(wheel.DefaultPrizes, nil); err != nil {
		t.Fatalf("таблица по умолчанию должна проходить валидацию: %v", err)
	}
}

func TestGeneratorDistribution(t *testing.T) {
	gen := newTestGenerator(t, wheel.DefaultPrizes, 42)

	const trials = 100_000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[gen.Draw().Name]++
	}

	// Вес первого приза 99.9 — статистическая нижняя граница с запасом
	first := wheel.DefaultPrizes[0].Name
	if ratio := float64(counts[first]) / trials; ratio < 0.995 {
		t.Errorf("первый приз выпал в %.4f долей, ожидалось ≥ 0.995", ratio)
	}

	rare := wheel.DefaultPrizes[3].Name
	if counts[rare] == 0 {
		t.Logf("редкий приз %q не выпал за %d попыток (вес 0.1%%)", rare, trials)
	}
}

func TestGeneratorZeroWeightNeverSelected(t *testing.T) {
	gen := newTestGenerator(t, wheel.DefaultPrizes, 7)

	for i := 0; i < 50_000; i++ {
		prize := gen.Draw()
		if prize.Chance == 0 {
			t.Fatalf("выпал приз с нулевым весом: %q", prize.Name)
		}
	}
}

func TestPrizeMatches(t *testing.T) {
	prize := wheel.DefaultPrizes[0]
	dto := prize.DTO()
	if !prize.Matches(dto) {
		t.Error("приз должен совпадать со своим DTO")
	}

	dto.Price = 100
	if prize.Matches(dto) {
		t.Error("изменённая цена не должна совпадать")
	}

	dto = prize.DTO()
	dto.Name = "Другой"
	if prize.Matches(dto) {
		t.Error("изменённое имя не должно совпадать")
	}
}
