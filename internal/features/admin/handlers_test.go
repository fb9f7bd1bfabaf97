package admin

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/payments"
	"gifts-wheel/internal/features/users"
)

func TestNotifyWithdrawalSentWithoutNotifier(t *testing.T) {
	// Без установленного нотификатора уведомление молча пропускается
	h := &Handler{}
	h.notifyWithdrawalSent(context.Background(), &payments.Withdrawal{UserID: 1})
}

func TestNotifyWithdrawalSent(t *testing.T) {
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

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
		    id BIGSERIAL PRIMARY KEY,
		    telegram_id BIGINT UNIQUE NOT NULL,
		    username VARCHAR(255) NOT NULL,
		    balance BIGINT NOT NULL DEFAULT 0,
		    created_at TIMESTAMP DEFAULT NOW(),
		    updated_at TIMESTAMP DEFAULT NOW()
		);
	`); err != nil {
		t.Fatalf("создание схемы: %v", err)
	}

	var userID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, balance)
		VALUES (930001, 'notify_user', 0)
		ON CONFLICT (telegram_id) DO UPDATE SET username = 'notify_user'
		RETURNING id
	`).Scan(&userID)
	if err != nil {
		t.Fatalf("создание пользователя: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	var gotChatID int64
	var gotText string
	h := &Handler{userRepo: users.NewRepository(pool)}
	h.SetNotifier(func(chatID int64, text string) {
		gotChatID = chatID
		gotText = text
	})

	h.notifyWithdrawalSent(ctx, &payments.Withdrawal{
		UserID:  userID,
		Amount:  common.ToNano(2.0),
		Address: "EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI",
	})

	if gotChatID != 930001 {
		t.Errorf("уведомление ушло в чат %d, ожидался 930001", gotChatID)
	}
	if !strings.Contains(gotText, "2.00 TON") {
		t.Errorf("в тексте уведомления нет суммы: %q", gotText)
	}
}
