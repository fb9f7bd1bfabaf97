package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gifts-wheel/internal/common"
)

type promoApplyRequest struct {
	TelegramID int64  `json:"telegramId"`
	Code       string `json:"code"`
}

func (s *Server) handlePromoApply(c *gin.Context) {
	var req promoApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	result, err := s.promo.Apply(c.Request.Context(), req.TelegramID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"amount":     common.FromNano(result.Amount),
		"newBalance": common.FromNano(result.NewBalance),
	})
}
