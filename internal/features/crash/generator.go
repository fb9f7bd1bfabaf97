// Package crash — generator.go: розыгрыш точки краша и кривая роста.
// Обе функции чистые; источник случайности инжектируется для тестов.
package crash

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Ярусы распределения точки краша:
//   - 99%   → [1.01, 1.41)
//   - 0.9%  → [1.41, 3.0)
//   - 0.1%  → [3.0, 10.0)
const (
	tierCommonUpper = 99.0
	tierMidUpper    = 99.9
)

// Generator разыгрывает точки краша.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator создаёт генератор. Если rng == nil — случайный сид.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{rng: rng}
}

// DrawCrashPoint разыгрывает точку краша по ярусному распределению.
func (g *Generator) DrawCrashPoint() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	roll := g.rng.Float64() * 100
	switch {
	case roll < tierCommonUpper:
		return 1.01 + g.rng.Float64()*0.4
	case roll < tierMidUpper:
		return 1.41 + g.rng.Float64()*1.59
	default:
		return 3.0 + g.rng.Float64()*7.0
	}
}

// MultiplierAt возвращает множитель раунда в момент now:
// линейный рост 1 + rate·t, где t — секунды с начала раунда.
func MultiplierAt(startedAt, now time.Time, rate float64) float64 {
	elapsed := now.Sub(startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 + elapsed*rate
}

// CrashTime возвращает момент, когда раунд с данной точкой краша
// разбивается: решение уравнения 1 + rate·t = crashPoint.
func CrashTime(startedAt time.Time, crashPoint, rate float64) time.Time {
	seconds := (crashPoint - 1) / rate
	return startedAt.Add(time.Duration(math.Round(seconds * float64(time.Second))))
}
