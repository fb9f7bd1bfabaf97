package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/wheel"
)

type spinRequest struct {
	TelegramID int64 `json:"telegramId"`
}

// prizeRequest — keep/sell ожидающего приза. Поле prize опционально:
// если клиент его прислал, оно сверяется с призом, разыгранным сервером.
type prizeRequest struct {
	TelegramID int64           `json:"telegramId"`
	Prize      *wheel.PrizeDTO `json:"prize"`
}

type inventorySellRequest struct {
	TelegramID int64 `json:"telegramId"`
	ItemID     int64 `json:"itemId"`
}

func (s *Server) handleSpin(c *gin.Context) {
	var req spinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	result, err := s.wheel.Spin(c.Request.Context(), req.TelegramID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prize":      result.Prize.DTO(),
		"newBalance": common.FromNano(result.NewBalance),
	})
}

func (s *Server) handlePrizeKeep(c *gin.Context) {
	var req prizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	if err := s.wheel.Keep(c.Request.Context(), req.TelegramID, req.Prize); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handlePrizeSell(c *gin.Context) {
	var req prizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	newBalance, err := s.wheel.Sell(c.Request.Context(), req.TelegramID, req.Prize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newBalance": common.FromNano(newBalance),
	})
}

func (s *Server) handleInventorySell(c *gin.Context) {
	var req inventorySellRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	newBalance, err := s.wheel.SellFromInventory(c.Request.Context(), req.TelegramID, req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newBalance": common.FromNano(newBalance),
	})
}
