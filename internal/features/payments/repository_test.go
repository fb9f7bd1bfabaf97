package payments_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/payments"
	"gifts-wheel/internal/features/users"
)

// Интеграционные тесты депозитов и выводов. Запускаются только
// при наличии TEST_DATABASE_URL.

const paymentsTestSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(50) NOT NULL,
    amount BIGINT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS deposits (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    deposit_id VARCHAR(64) UNIQUE NOT NULL,
    address VARCHAR(128) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    amount BIGINT NOT NULL DEFAULT 0,
    tx_hash VARCHAR(128) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS withdrawals (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    address VARCHAR(128) NOT NULL,
    amount BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
`

func setupPaymentsTest(t *testing.T, telegramID, balance int64) (*pgxpool.Pool, int64) {
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

	if _, err := pool.Exec(ctx, paymentsTestSchema); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}

	var userID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, balance)
		VALUES ($1, 'payments_user', $2)
		ON CONFLICT (telegram_id) DO UPDATE SET balance = $2
		RETURNING id
	`, telegramID, balance).Scan(&userID)
	if err != nil {
		t.Fatalf("создание пользователя: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM deposits WHERE user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM withdrawals WHERE user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})
	return pool, userID
}

func TestCompleteDepositCreditsOnce(t *testing.T) {
	pool, userID := setupPaymentsTest(t, 920001, 0)
	repo := payments.NewRepository(pool)
	ctx := context.Background()

	depositID := "DEP-920001-test0001"
	if err := repo.CreateDeposit(ctx, userID, depositID, "EQtest"); err != nil {
		t.Fatalf("создание депозита: %v", err)
	}

	amount := common.ToNano(1.5)

	// Два конкурирующих завершения одного депозита
	var wg sync.WaitGroup
	credited := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			credited[i], errs[i] = repo.CompleteDeposit(ctx, depositID, amount, "txhash")
		}(i)
	}
	wg.Wait()

	var success int
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("завершение %d: %v", i, errs[i])
		}
		if credited[i] {
			success++
		}
	}
	if success != 1 {
		t.Errorf("начислений %d, ожидалось ровно 1", success)
	}

	var balance int64
	if err := pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		t.Fatal(err)
	}
	if balance != amount {
		t.Errorf("баланс %d, ожидалось %d", balance, amount)
	}
}

func TestGetDepositNotFound(t *testing.T) {
	pool, _ := setupPaymentsTest(t, 920002, 0)
	repo := payments.NewRepository(pool)

	_, err := repo.GetDeposit(context.Background(), "DEP-nope")
	if !errors.Is(err, common.ErrDepositNotFound) {
		t.Errorf("ожидался ErrDepositNotFound, получено %v", err)
	}
}

func TestCheckDepositResolvesOwnerFromDeposit(t *testing.T) {
	pool, userID := setupPaymentsTest(t, 920004, 0)
	repo := payments.NewRepository(pool)
	userRepo := users.NewRepository(pool)
	svc := payments.NewService(repo, userRepo, nil, &config.Config{})
	ctx := context.Background()

	depositID := "DEP-920004-owner001"
	if err := repo.CreateDeposit(ctx, userID, depositID, "EQtest"); err != nil {
		t.Fatalf("создание депозита: %v", err)
	}
	amount := common.ToNano(2.0)
	if _, err := repo.CompleteDeposit(ctx, depositID, amount, "txhash"); err != nil {
		t.Fatalf("завершение депозита: %v", err)
	}

	// Клиент шлёт только depositId — владелец берётся из строки депозита
	res, err := svc.CheckDeposit(ctx, 0, depositID)
	if err != nil {
		t.Fatalf("проверка без telegramId: %v", err)
	}
	if !res.Completed || res.Amount != amount {
		t.Errorf("Completed=%v Amount=%d, ожидалось завершение на %d", res.Completed, res.Amount, amount)
	}
	if res.NewBalance != amount {
		t.Errorf("баланс %d, ожидалось %d", res.NewBalance, amount)
	}

	// Переданный telegramId работает как перекрёстная проверка владения
	if _, err := svc.CheckDeposit(ctx, 920004, depositID); err != nil {
		t.Errorf("проверка владельцем: %v", err)
	}

	var otherID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, balance)
		VALUES (920005, 'payments_other', 0)
		ON CONFLICT (telegram_id) DO UPDATE SET balance = 0
		RETURNING id
	`).Scan(&otherID)
	if err != nil {
		t.Fatalf("создание второго пользователя: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, otherID)
	})

	if _, err := svc.CheckDeposit(ctx, 920005, depositID); !errors.Is(err, common.ErrDepositNotFound) {
		t.Errorf("чужой telegramId: ожидался ErrDepositNotFound, получено %v", err)
	}
}

func TestCreateWithdrawalDebitsBalance(t *testing.T) {
	pool, userID := setupPaymentsTest(t, 920003, common.ToNano(3.0))
	repo := payments.NewRepository(pool)
	ctx := context.Background()

	withdrawalID, newBalance, err := repo.CreateWithdrawal(ctx, userID, "EQtest", common.ToNano(2.0))
	if err != nil {
		t.Fatalf("создание вывода: %v", err)
	}
	if newBalance != common.ToNano(1.0) {
		t.Errorf("баланс после вывода %d, ожидалось %d", newBalance, common.ToNano(1.0))
	}

	// Недостаточно средств — ни заявки, ни списания
	if _, _, err := repo.CreateWithdrawal(ctx, userID, "EQtest", common.ToNano(2.0)); !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("ожидался ErrInsufficientBalance, получено %v", err)
	}

	pending, err := repo.ListPendingWithdrawals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, w := range pending {
		if w.ID == withdrawalID {
			found = true
		}
	}
	if !found {
		t.Error("созданная заявка не найдена среди ожидающих")
	}

	// Повторная отметка «отправлено» не проходит
	marked, err := repo.MarkWithdrawalSent(ctx, withdrawalID)
	if err != nil || !marked {
		t.Fatalf("первая отметка: marked=%v err=%v", marked, err)
	}
	marked, err = repo.MarkWithdrawalSent(ctx, withdrawalID)
	if err != nil {
		t.Fatal(err)
	}
	if marked {
		t.Error("повторная отметка должна возвращать false")
	}
}
