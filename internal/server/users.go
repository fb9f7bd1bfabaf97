package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gifts-wheel/internal/common"
)

const transactionsLimit = 50

// handleMe создаёт пользователя при первом обращении и возвращает
// профиль с балансом и инвентарём.
func (s *Server) handleMe(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Query("telegramId"), 10, 64)
	if err != nil || telegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	user, err := s.users.GetOrCreate(c.Request.Context(), telegramID, c.Query("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := s.users.GetInventory(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	inventory := make([]gin.H, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, gin.H{
			"id":    item.ID,
			"name":  item.Name,
			"emoji": item.Emoji,
			"price": common.FromNano(item.Price),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"telegramId": user.TelegramID,
		"username":   user.Username,
		"balance":    common.FromNano(user.Balance),
		"inventory":  inventory,
	})
}

// handleTransactions возвращает последние движения по балансу.
func (s *Server) handleTransactions(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Query("telegramId"), 10, 64)
	if err != nil || telegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	user, err := s.users.Get(c.Request.Context(), telegramID)
	if err != nil {
		respondError(c, err)
		return
	}

	txs, err := s.ledger.GetTransactions(c.Request.Context(), user.ID, transactionsLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(txs))
	for _, tx := range txs {
		out = append(out, gin.H{
			"type":        tx.Type,
			"amount":      common.FromNano(tx.Amount),
			"description": tx.Description,
			"createdAt":   tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"transactions": out})
}
