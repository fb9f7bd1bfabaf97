package ledger_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/ledger"
)

// Интеграционные тесты денежного ядра. Запускаются только при наличии
// TEST_DATABASE_URL (пустая тестовая база PostgreSQL).

const testSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    starting_balance BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
ALTER TABLE users ADD COLUMN IF NOT EXISTS starting_balance BIGINT NOT NULL DEFAULT 0;
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(50) NOT NULL,
    amount BIGINT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
`

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционный тест пропущен")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("подключение к тестовой БД: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, testSchema); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, telegramID, balance int64) int64 {
	t.Helper()

	ctx := context.Background()
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, balance, starting_balance)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET balance = $3, starting_balance = $3
		RETURNING id
	`, telegramID, "test_user", balance).Scan(&id)
	if err != nil {
		t.Fatalf("создание пользователя: %v", err)
	}

	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id)
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func debitOnce(pool *pgxpool.Pool, userID, amount int64) (int64, error) {
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	newBalance, err := ledger.DebitUser(ctx, tx, userID, amount, ledger.TxTypeSpin, "Spin")
	if err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

func TestDebitExactBalance(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, 900001, common.ToNano(1.0))

	newBalance, err := debitOnce(pool, userID, common.ToNano(1.0))
	if err != nil {
		t.Fatalf("списание ровно баланса должно проходить: %v", err)
	}
	if newBalance != 0 {
		t.Errorf("новый баланс %d, ожидался 0", newBalance)
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, 900002, common.ToNano(0.99))

	_, err := debitOnce(pool, userID, common.ToNano(1.0))
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("ожидался ErrInsufficientBalance, получено %v", err)
	}

	// Баланс и журнал не должны измениться
	var balance int64
	if err := pool.QueryRow(context.Background(),
		`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		t.Fatal(err)
	}
	if balance != common.ToNano(0.99) {
		t.Errorf("баланс изменился после отказа: %d", balance)
	}
}

func TestConcurrentDebitSingleSuccess(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, 900003, common.ToNano(1.0))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = debitOnce(pool, userID, common.ToNano(1.0))
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, common.ErrInsufficientBalance):
			rejected++
		default:
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Errorf("ожидалось ровно одно успешное списание, получено %d успехов и %d отказов",
			succeeded, rejected)
	}
}

func TestReconciliationInvariant(t *testing.T) {
	pool := setupTestDB(t)
	starting := common.ToNano(5.0)
	userID := createTestUser(t, pool, 900004, starting)

	ctx := context.Background()

	// Последовательность операций через денежное ядро
	ops := []struct {
		debit  bool
		amount int64
		txType string
	}{
		{true, common.ToNano(1.0), ledger.TxTypeSpin},
		{false, common.ToNano(0.1), ledger.TxTypePrizeSell},
		{true, common.ToNano(2.0), ledger.TxTypeCrashBet},
		{false, common.ToNano(3.0), ledger.TxTypeCrashWin},
		{false, common.ToNano(2.0), ledger.TxTypePromo},
	}
	for _, op := range ops {
		tx, err := pool.Begin(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if op.debit {
			_, err = ledger.DebitUser(ctx, tx, userID, op.amount, op.txType, "test")
		} else {
			_, err = ledger.CreditUser(ctx, tx, userID, op.amount, op.txType, "test")
		}
		if err != nil {
			tx.Rollback(ctx)
			t.Fatalf("операция %+v: %v", op, err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatal(err)
		}
	}

	var balance, txSum int64
	if err := pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		t.Fatal(err)
	}
	if err := pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`, userID).Scan(&txSum); err != nil {
		t.Fatal(err)
	}

	if balance != starting+txSum {
		t.Errorf("инвариант нарушен: баланс %d, стартовый + сумма транзакций %d",
			balance, starting+txSum)
	}
}

func TestFindDriftUsesPerUserStartingBalance(t *testing.T) {
	pool := setupTestDB(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()

	// Два пользователя с разными стартовыми балансами: сверка опирается
	// на зафиксированное в строке значение, а не на текущий конфиг
	oldUser := createTestUser(t, pool, 900006, common.ToNano(5.0))
	newUser := createTestUser(t, pool, 900007, common.ToNano(3.0))

	if _, err := debitOnce(pool, oldUser, common.ToNano(1.0)); err != nil {
		t.Fatal(err)
	}
	if _, err := debitOnce(pool, newUser, common.ToNano(1.0)); err != nil {
		t.Fatal(err)
	}

	reports, err := repo.FindDrift(ctx)
	if err != nil {
		t.Fatalf("сверка: %v", err)
	}
	for _, r := range reports {
		if r.UserID == oldUser || r.UserID == newUser {
			t.Errorf("ложный дрейф у пользователя %d: %+v", r.UserID, r)
		}
	}

	// Искажение баланса мимо денежного ядра сверка обязана поймать
	if _, err := pool.Exec(ctx,
		`UPDATE users SET balance = balance + 1 WHERE id = $1`, newUser); err != nil {
		t.Fatal(err)
	}

	reports, err = repo.FindDrift(ctx)
	if err != nil {
		t.Fatalf("повторная сверка: %v", err)
	}
	var found *ledger.DriftReport
	for _, r := range reports {
		if r.UserID == newUser {
			found = r
		}
	}
	if found == nil {
		t.Fatal("искажённый баланс не попал в отчёт сверки")
	}
	if found.Drift != 1 {
		t.Errorf("дрейф %d, ожидался 1", found.Drift)
	}
}

func TestCreditRejectsNonPositive(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, 900005, 0)

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback(ctx)

	if _, err := ledger.CreditUser(ctx, tx, userID, 0, ledger.TxTypePromo, "test"); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("нулевое зачисление: ожидался ErrInvalidAmount, получено %v", err)
	}
	if _, err := ledger.DebitUser(ctx, tx, userID, -5, ledger.TxTypeSpin, "test"); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("отрицательное списание: ожидался ErrInvalidAmount, получено %v", err)
	}
}
