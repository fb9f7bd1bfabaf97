// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бэкенда.
// Эти ошибки позволяют HTTP-слою и боту различать типы проблем
// и отдавать клиенту корректный статус и понятное сообщение.
package common

import "errors"

// Ошибки валидации входных данных (→ HTTP 400)
var (
	// ErrTelegramIDRequired — в запросе не передан telegramId
	ErrTelegramIDRequired = errors.New("telegramId обязателен")
	// ErrDepositIDRequired — в запросе не передан depositId
	ErrDepositIDRequired = errors.New("depositId обязателен")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrInvalidAddress — адрес кошелька не прошёл синтаксическую проверку
	ErrInvalidAddress = errors.New("некорректный адрес кошелька")
	// ErrPrizeMismatch — переданный приз не совпадает с призом последнего спина
	ErrPrizeMismatch = errors.New("приз не совпадает с результатом спина")
)

// Ошибки «не найдено» (→ HTTP 404)
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrDepositNotFound — депозит с таким идентификатором не существует
	ErrDepositNotFound = errors.New("депозит не найден")
	// ErrRoundNotFound — раунд краша не найден или уже завершён
	ErrRoundNotFound = errors.New("раунд не найден или уже завершён")
	// ErrNoPendingPrize — нет неразрешённого приза (спин не делался или истёк)
	ErrNoPendingPrize = errors.New("нет ожидающего приза")
)

// Ошибки бизнес-правил (→ HTTP 400)
var (
	// ErrInsufficientBalance — недостаточно TON на балансе
	ErrInsufficientBalance = errors.New("недостаточно средств на балансе")
	// ErrInvalidPromoCode — промокод не существует
	ErrInvalidPromoCode = errors.New("неверный промокод")
	// ErrPromoAlreadyRedeemed — промокод уже использован этим пользователем
	ErrPromoAlreadyRedeemed = errors.New("промокод уже использован")
	// ErrRoundAlreadyCrashed — попытка кэшаута после точки краша
	ErrRoundAlreadyCrashed = errors.New("раунд уже разбился")
)

// Ошибки внешних систем (→ HTTP 500, клиенту отдаётся общее сообщение)
var (
	// ErrBridgeUnavailable — toncenter недоступен или вернул ошибку
	ErrBridgeUnavailable = errors.New("платёжный шлюз недоступен")
	// ErrSendNotImplemented — автоматическая отправка TON не реализована,
	// вывод подтверждается вручную через админ-панель
	ErrSendNotImplemented = errors.New("автоматическая отправка не поддерживается")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
