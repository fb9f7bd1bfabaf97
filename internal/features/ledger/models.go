// Package ledger — денежное ядро системы. Каждое изменение баланса
// проходит через DebitUser/CreditUser внутри одной транзакции БД
// и оставляет строку аудита в transactions.
// models.go описывает структуры таблиц transactions и games.
package ledger

import (
	"encoding/json"
	"time"
)

// Transaction — одна запись аудита движения средств.
// Append-only: записи никогда не изменяются и не удаляются.
// Инвариант: стартовый баланс + сумма всех amount пользователя
// равна его текущему балансу (проверяется фоновой задачей).
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Type        string    `db:"type"`        // spin, prize_sell, promo, ...
	Amount      int64     `db:"amount"`      // наноTON, со знаком
	Description string    `db:"description"` // текст для истории
	CreatedAt   time.Time `db:"created_at"`
}

// Допустимые типы транзакций
const (
	TxTypeSpin      = "spin"       // списание за спин колеса
	TxTypePrizeSell = "prize_sell" // продажа приза
	TxTypePromo     = "promo"      // бонус по промокоду
	TxTypeCrashBet  = "crash_bet"  // ставка в краше
	TxTypeCrashWin  = "crash_win"  // выигрыш в краше
	TxTypeDeposit   = "deposit"    // зачисление депозита
	TxTypeWithdraw  = "withdraw"   // списание на вывод
)

// Game — неизменяемая запись одной игры (спин колеса или раунд краша).
type Game struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Type       string          `db:"type"`   // wheel | crash
	Bet        int64           `db:"bet"`    // наноTON
	Result     int64           `db:"result"` // наноTON, что зачислено
	Prize      json.RawMessage `db:"prize"`  // метаданные приза (wheel)
	Multiplier float64         `db:"multiplier"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Типы игр
const (
	GameTypeWheel = "wheel"
	GameTypeCrash = "crash"
)

// GameStats — агрегированная статистика игр пользователя (для бота).
type GameStats struct {
	TotalGames int
	WheelGames int
	CrashGames int
}

// DriftReport — результат сверки баланса с суммой транзакций.
type DriftReport struct {
	UserID     int64
	TelegramID int64
	Balance    int64 // текущий баланс
	Expected   int64 // стартовый баланс + сумма транзакций
	Drift      int64 // Balance - Expected
}
