package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
)

// respondError переводит ошибку сервиса в HTTP-статус и сообщение.
// Неизвестные ошибки не утекают клиенту: логируются и отдаются как 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrTelegramIDRequired),
		errors.Is(err, common.ErrDepositIDRequired),
		errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrInvalidAddress),
		errors.Is(err, common.ErrPrizeMismatch),
		errors.Is(err, common.ErrInsufficientBalance),
		errors.Is(err, common.ErrInvalidPromoCode),
		errors.Is(err, common.ErrPromoAlreadyRedeemed),
		errors.Is(err, common.ErrRoundAlreadyCrashed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrDepositNotFound),
		errors.Is(err, common.ErrRoundNotFound),
		errors.Is(err, common.ErrNoPendingPrize):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrBridgeUnavailable):
		log.WithError(err).Error("Платёжный шлюз недоступен")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Платёжный сервис временно недоступен"})

	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Необработанная ошибка")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}
