// Package admin — handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: аутентификация → клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/payments"
	"gifts-wheel/internal/features/users"
)

// Кнопки клавиатуры админ-панели
const (
	btnWithdrawals = "Заявки на вывод"
	btnMarkSent    = "Отметить отправленным"
	btnDrift       = "Сверка балансов"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service  *Service
	userRepo *users.Repository
	bot      *tgbotapi.BotAPI

	// notify отправляет пользователю сообщение от имени бота
	// (устанавливается после сборки бота, чтобы не замыкать импорты)
	notify func(chatID int64, text string)
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, userRepo *users.Repository, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:  service,
		userRepo: userRepo,
		bot:      bot,
	}
}

// SetNotifier задаёт функцию уведомления пользователей о событиях
// по их заявкам.
func (h *Handler) SetNotifier(fn func(chatID int64, text string)) {
	h.notify = fn
}

// HandleAdminMessage обрабатывает любое сообщение администратора в DM.
// Определяет текущее состояние диалога и маршрутизирует сообщение.
// Возвращает false, если сообщение не относится к админ-панели.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	if !h.service.cfg.IsAdmin(userID) {
		return false
	}

	state := h.service.GetState(userID)

	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	isPanelRequest := isPanelKeyword(text)
	if !h.service.HasActiveSession(ctx, userID) {
		if !isPanelRequest {
			return false
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	h.service.repo.UpdateActivity(ctx, userID)

	if state != nil && state.State == StateMarkSentSelect {
		h.handleMarkSentSelect(ctx, chatID, userID, text)
		return true
	}

	switch text {
	case btnWithdrawals:
		h.showWithdrawals(ctx, chatID)
		return true
	case btnMarkSent:
		h.startMarkSent(ctx, chatID, userID)
		return true
	case btnDrift:
		h.showDrift(ctx, chatID)
		return true
	}
	if isPanelRequest {
		h.showKeyboard(chatID)
		return true
	}

	return false
}

func isPanelKeyword(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "админ", "панель", "/admin":
		return true
	}
	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	err := h.service.VerifyPassword(ctx, userID, password)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ %s", err.Error()))
		h.service.ClearState(userID)
		return
	}

	h.service.ClearState(userID)
	h.sendMessage(chatID, "✅ Аутентификация успешна!")
	h.showKeyboard(chatID)
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWithdrawals),
			tgbotapi.NewKeyboardButton(btnMarkSent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDrift),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "✅ Админ-панель открыта")
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

// showWithdrawals показывает неотправленные заявки на вывод.
func (h *Handler) showWithdrawals(ctx context.Context, chatID int64) {
	withdrawals, err := h.service.PendingWithdrawals(ctx)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	if len(withdrawals) == 0 {
		h.sendMessage(chatID, "Нет ожидающих заявок на вывод")
		return
	}

	h.sendMessage(chatID, h.formatWithdrawals(ctx, withdrawals))
}

// --- Отметить отправленным (2 шага) ---

// startMarkSent — Шаг 1: показать заявки и запросить номер.
func (h *Handler) startMarkSent(ctx context.Context, chatID int64, userID int64) {
	withdrawals, err := h.service.PendingWithdrawals(ctx)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		return
	}
	if len(withdrawals) == 0 {
		h.sendMessage(chatID, "Нет ожидающих заявок на вывод")
		return
	}

	var sb strings.Builder
	sb.WriteString("Выберите заявку (отправьте номер):\n\n")
	sb.WriteString(h.formatWithdrawals(ctx, withdrawals))

	h.sendMessage(chatID, sb.String())
	h.service.SetState(userID, StateMarkSentSelect, withdrawals)
}

// handleMarkSentSelect — Шаг 2: администратор выбрал номер.
func (h *Handler) handleMarkSentSelect(ctx context.Context, chatID int64, userID int64, text string) {
	state := h.service.GetState(userID)
	withdrawals := state.Data.([]*payments.Withdrawal)

	num, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || num < 1 || num > len(withdrawals) {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	selected := withdrawals[num-1]
	marked, err := h.service.MarkWithdrawalSent(ctx, selected.ID)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка: %s", err.Error()))
		h.service.ClearState(userID)
		return
	}
	if !marked {
		h.sendMessage(chatID, "Заявка уже отмечена отправленной")
	} else {
		h.sendMessage(chatID, fmt.Sprintf("✅ Вывод #%d отмечен отправленным (%s)",
			selected.ID, common.FormatTON(selected.Amount)))
		h.notifyWithdrawalSent(ctx, selected)
	}
	h.service.ClearState(userID)
}

// notifyWithdrawalSent сообщает владельцу заявки, что его TON отправлены.
func (h *Handler) notifyWithdrawalSent(ctx context.Context, w *payments.Withdrawal) {
	if h.notify == nil {
		return
	}
	user, err := h.userRepo.GetByID(ctx, w.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", w.UserID).Warn("Не удалось найти получателя уведомления")
		return
	}
	h.notify(user.TelegramID, fmt.Sprintf("✅ Ваш вывод %s на адрес %s отправлен!",
		common.FormatTON(w.Amount), common.Truncate(w.Address, 12)))
}

// showDrift запускает сверку балансов и показывает расхождения.
func (h *Handler) showDrift(ctx context.Context, chatID int64) {
	reports, err := h.service.FindDrift(ctx)
	if err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ Ошибка сверки: %s", err.Error()))
		return
	}
	if len(reports) == 0 {
		h.sendMessage(chatID, "✅ Расхождений нет: все балансы сходятся с журналом")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️ Найдено расхождений: %d\n\n", len(reports)))
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("tg %d: баланс %s, по журналу %s (дрейф %s)\n",
			r.TelegramID, common.FormatTON(r.Balance),
			common.FormatTON(r.Expected), common.FormatSigned(r.Drift)))
	}
	h.sendMessage(chatID, sb.String())
}

// formatWithdrawals форматирует список заявок с именами пользователей.
func (h *Handler) formatWithdrawals(ctx context.Context, withdrawals []*payments.Withdrawal) string {
	var sb strings.Builder
	for i, w := range withdrawals {
		username := "?"
		if user, err := h.userRepo.GetByID(ctx, w.UserID); err == nil {
			username = user.Username
		}
		sb.WriteString(fmt.Sprintf("%d. #%d %s — %s → %s (%s)\n",
			i+1, w.ID, username, common.FormatTON(w.Amount),
			common.Truncate(w.Address, 12), common.FormatDateTime(w.CreatedAt)))
	}
	return sb.String()
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
