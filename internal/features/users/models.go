// Package users управляет пользователями мини-приложения и их инвентарём.
// models.go описывает структуры таблиц users и inventory_items.
package users

import "time"

// User — пользователь казино. Создаётся при первом контакте
// (/start в боте или GET /api/me) со стартовым балансом.
// Баланс хранится в наноTON и изменяется только денежными операциями
// фич (wheel, crash, promo, payments) внутри транзакций БД.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"` // Telegram user ID, уникальный
	Username   string    `db:"username"`
	Balance    int64     `db:"balance"` // наноTON, неотрицательный
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// InventoryItem — оставленный (непроданный) приз колеса.
type InventoryItem struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	Emoji     string    `db:"emoji"`
	Price     int64     `db:"price"` // наноTON
	CreatedAt time.Time `db:"created_at"`
}
