// Package wheel реализует колесо фортуны: взвешенный розыгрыш приза,
// спин за фиксированную цену, оставление приза в инвентарь и продажу.
// models.go описывает приз и таблицу призов по умолчанию.
package wheel

import "gifts-wheel/internal/common"

// Prize — приз колеса. Chance — вес в процентах; веса всех призов
// в сумме дают 100. Вес 0 допустим: такой приз рисуется на колесе,
// но выпасть не может.
type Prize struct {
	Emoji  string  `json:"emoji"`
	Name   string  `json:"name"`
	Price  int64   `json:"price"`  // наноTON
	Chance float64 `json:"chance"` // вес в процентах
}

// PrizeDTO — представление приза в HTTP API: цена в TON, как в клиенте.
type PrizeDTO struct {
	Emoji  string  `json:"emoji"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Chance float64 `json:"chance"`
}

// DTO конвертирует приз для выдачи в API.
func (p Prize) DTO() PrizeDTO {
	return PrizeDTO{
		Emoji:  p.Emoji,
		Name:   p.Name,
		Price:  common.FromNano(p.Price),
		Chance: p.Chance,
	}
}

// Matches сравнивает приз с присланным клиентом payload.
// Цена сравнивается в наноTON после конвертации, чтобы не зависеть
// от точности float в JSON.
func (p Prize) Matches(dto PrizeDTO) bool {
	return p.Name == dto.Name &&
		p.Emoji == dto.Emoji &&
		p.Price == common.ToNano(dto.Price)
}

// DefaultPrizes — таблица призов по умолчанию.
// Порядок важен: при розыгрыше выбирается первый приз, чей накопленный
// вес превышает выпавшее значение.
var DefaultPrizes = []Prize{
	{Emoji: "🧸", Name: "Мишка", Price: common.ToNano(0.1), Chance: 99.9},
	{Emoji: "🐸", Name: "Пепе", Price: 0, Chance: 0},
	{Emoji: "💋", Name: "Губы", Price: 0, Chance: 0},
	{Emoji: "📅", Name: "Календарь", Price: common.ToNano(1.5), Chance: 0.1},
	{Emoji: "🍀", Name: "Клевер", Price: 0, Chance: 0},
	{Emoji: "🍑", Name: "Слива", Price: 0, Chance: 0},
}
