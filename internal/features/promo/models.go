// Package promo управляет промокодами: фиксированная таблица
// {код → сумма} из конфигурации, каждый код — не более одного раза
// на пользователя. models.go описывает запись об использовании.
package promo

import "time"

// Redemption — факт использования промокода.
// Уникальность (user_id, code) обеспечивается ограничением в БД:
// это единственный надёжный заслон от двойного начисления при гонке.
type Redemption struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Code      string    `db:"code"`   // канонический вид (верхний регистр)
	Amount    int64     `db:"amount"` // наноTON
	CreatedAt time.Time `db:"created_at"`
}
