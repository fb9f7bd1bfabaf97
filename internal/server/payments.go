package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/payments"
)

type depositCreateRequest struct {
	TelegramID int64 `json:"telegramId"`
}

type depositCheckRequest struct {
	TelegramID int64  `json:"telegramId"`
	DepositID  string `json:"depositId"`
}

type withdrawRequest struct {
	TelegramID int64   `json:"telegramId"`
	Address    string  `json:"address"`
	Amount     float64 `json:"amount"`
}

func (s *Server) handleDepositCreate(c *gin.Context) {
	var req depositCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	invoice, err := s.payments.CreateDeposit(c.Request.Context(), req.TelegramID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":   invoice.Address,
		"depositId": invoice.DepositID,
		"comment":   invoice.DepositID,
	})
}

// handleDepositCheck проверяет депозит по токену. Владелец определяется
// по строке депозита, поэтому telegramId в теле опционален.
func (s *Server) handleDepositCheck(c *gin.Context) {
	var req depositCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DepositID == "" {
		respondError(c, common.ErrDepositIDRequired)
		return
	}

	result, err := s.payments.CheckDeposit(c.Request.Context(), req.TelegramID, req.DepositID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.Completed {
		c.JSON(http.StatusOK, gin.H{"status": payments.DepositStatusPending})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     payments.DepositStatusCompleted,
		"amount":     common.FromNano(result.Amount),
		"newBalance": common.FromNano(result.NewBalance),
	})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	result, err := s.payments.Withdraw(c.Request.Context(), req.TelegramID, req.Address, common.ToNano(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"withdrawalId": result.WithdrawalID,
		"newBalance":   common.FromNano(result.NewBalance),
	})
}

func (s *Server) handleAddressBalance(c *gin.Context) {
	address := c.Param("address")

	balance, err := s.payments.AddressBalance(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"balance": common.FromNano(balance),
	})
}
