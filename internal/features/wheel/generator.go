// Package wheel — generator.go: взвешенный розыгрыш приза.
// Генератор чистый и без состояния, кроме источника случайности;
// в тестах он создаётся с сидированным rand для детерминизма.
package wheel

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Generator выбирает приз по взвешенному распределению.
type Generator struct {
	prizes []Prize

	// math/rand.Rand не потокобезопасен, спины идут из разных горутин
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator создаёт генератор. Веса призов должны в сумме давать 100
// (с допуском на float-арифметику). Если rng == nil, используется
// новый источник со случайным сидом.
func NewGenerator(prizes []Prize, rng *rand.Rand) (*Generator, error) {
	if len(prizes) == 0 {
		return nil, fmt.Errorf("таблица призов пуста")
	}

	var total float64
	for _, p := range prizes {
		if p.Chance < 0 {
			return nil, fmt.Errorf("отрицательный вес у приза %q", p.Name)
		}
		total += p.Chance
	}
	if math.Abs(total-100) > 1e-9 {
		return nil, fmt.Errorf("веса призов в сумме дают %.4f, ожидается 100", total)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	return &Generator{prizes: prizes, rng: rng}, nil
}

// Draw разыгрывает приз: равномерное значение в [0,100) и выбор первого
// приза, чей накопленный вес его превышает. Призы с весом 0 выпасть
// не могут. При равенстве побеждает порядок в таблице.
func (g *Generator) Draw() Prize {
	g.mu.Lock()
	roll := g.rng.Float64() * 100
	g.mu.Unlock()

	cumulative := 0.0
	for _, p := range g.prizes {
		cumulative += p.Chance
		if roll < cumulative {
			return p
		}
	}
	// roll попал в хвост погрешности float — отдаём первый приз,
	// как делает клиентская рулетка
	return g.prizes[0]
}

// Prizes возвращает таблицу призов (для выдачи клиенту).
func (g *Generator) Prizes() []Prize {
	return g.prizes
}
