// Package payments управляет депозитами и выводами TON.
// models.go описывает структуры таблиц deposits и withdrawals.
package payments

import "time"

// Статусы депозита. Единственный переход: pending → completed,
// его выполняет CheckDeposit при первом найденном совпадении.
// Истечения/отмены нет: неоплаченный депозит остаётся pending
// и может завершиться позже.
const (
	DepositStatusPending   = "pending"
	DepositStatusCompleted = "completed"
)

// Статусы вывода. Создаётся pending (средства уже списаны),
// перевод выполняет оператор и помечает вывод отправленным
// через админ-панель бота.
const (
	WithdrawalStatusPending = "pending"
	WithdrawalStatusSent    = "sent"
)

// Deposit — входящий платёж. DepositID — видимый пользователю токен,
// который он указывает в комментарии перевода; по нему депозит
// сопоставляется с транзакцией в цепочке.
type Deposit struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	DepositID string    `db:"deposit_id"` // токен-комментарий
	Address   string    `db:"address"`    // адрес кошелька-получателя
	Status    string    `db:"status"`
	Amount    int64     `db:"amount"`  // наноTON, 0 до совпадения
	TxHash    string    `db:"tx_hash"` // хеш транзакции в цепочке
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Withdrawal — заявка на вывод. Баланс списывается при создании
// (debit-then-fulfill), отправка — вне автоматического контура.
type Withdrawal struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Address   string    `db:"address"`
	Amount    int64     `db:"amount"` // наноTON
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
