// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает обработчики команд и запускает polling.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/bot/middleware"
	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/admin"
	"gifts-wheel/internal/features/ledger"
	"gifts-wheel/internal/features/users"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	userService  *users.Service
	ledgerRepo   *ledger.Repository
	adminHandler *admin.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	userService *users.Service,
	ledgerRepo *ledger.Repository,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:          api,
		cfg:          cfg,
		rateLimiter:  middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		userService:  userService,
		ledgerRepo:   ledgerRepo,
		adminHandler: adminHandler,
		inflight:     make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// Бот работает только в личных сообщениях
	if !message.Chat.IsPrivate() {
		return
	}

	// Сначала даём шанс админ-панели
	if b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text) {
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "balance":
		b.handleBalance(ctx, chatID, userID)
	default:
		b.sendMessage(chatID, "👋 Используйте /start для запуска игры!")
	}
}

// handleStart регистрирует пользователя и показывает кнопку мини-аппа.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	from := message.From

	if _, err := b.userService.GetOrCreate(ctx, from.ID, from.UserName); err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("Ошибка создания пользователя")
	}

	firstName := from.FirstName
	if firstName == "" {
		firstName = from.UserName
	}

	welcome := fmt.Sprintf(`🎰 Добро пожаловать в Gifts Wheel, %s!

🎁 Крути колесо фортуны и выигрывай призы!
🚀 Играй в краш-игру и умножай свой баланс!
💰 Получи %s при старте!

Нажми кнопку ниже, чтобы начать игру! 👇`, firstName, common.FormatTON(b.cfg.StartingBalance()))

	msg := tgbotapi.NewMessage(chatID, welcome)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonWebApp("🎮 Играть", tgbotapi.WebAppInfo{URL: b.cfg.WebAppURL}),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Мой профиль", "profile"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "stats"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки приветствия")
	}
}

// handleBalance показывает текущий баланс.
func (b *Bot) handleBalance(ctx context.Context, chatID, userID int64) {
	user, err := b.userService.Get(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, "❌ Пользователь не найден. Используйте /start")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("💰 Ваш баланс: %s", common.FormatTON(user.Balance)))
}

// handleCallback обрабатывает inline-кнопки profile и stats.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	user, err := b.userService.Get(ctx, userID)
	if err != nil {
		b.answerCallback(query.ID, "❌ Пользователь не найден")
		return
	}

	switch query.Data {
	case "profile":
		count, err := b.userService.CountInventory(ctx, user.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка получения инвентаря")
			b.answerCallback(query.ID, "❌ Произошла ошибка")
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(`👤 Ваш профиль:

🆔 ID: %d
👤 Username: %s
💰 Баланс: %s
🎁 Подарков в инвентаре: %d`, user.TelegramID, user.Username, common.FormatTON(user.Balance), count))
		b.answerCallback(query.ID, "")

	case "stats":
		stats, err := b.ledgerRepo.GetGameStats(ctx, user.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка получения статистики")
			b.answerCallback(query.ID, "❌ Произошла ошибка")
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(`📊 Ваша статистика:

🎮 Всего игр: %d
🎰 Игр в колесо: %d
🚀 Игр в краш: %d`, stats.TotalGames, stats.WheelGames, stats.CrashGames))
		b.answerCallback(query.ID, "")
	}
}

// answerCallback закрывает "часики" на inline-кнопке.
func (b *Bot) answerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений о выплатах).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}
