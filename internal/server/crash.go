package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/crash"
)

type crashStartRequest struct {
	TelegramID int64   `json:"telegramId"`
	Bet        float64 `json:"bet"`
}

type crashCashoutRequest struct {
	TelegramID int64  `json:"telegramId"`
	RoundID    string `json:"roundId"`
}

// crashPlayRequest — единый расчёт раунда. Исход раунда сервер
// вычисляет сам по своим часам; присланные клиентом множитель и точка
// краша игнорируются и оставлены только для совместимости формата.
type crashPlayRequest struct {
	TelegramID        int64   `json:"telegramId"`
	RoundID           string  `json:"roundId"`
	CashedOut         bool    `json:"cashedOut"`
	Bet               float64 `json:"bet"`
	CrashPoint        float64 `json:"crashPoint"`
	CashoutMultiplier float64 `json:"cashoutMultiplier"`
}

func (s *Server) handleCrashStart(c *gin.Context) {
	var req crashStartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	result, err := s.crash.Start(c.Request.Context(), req.TelegramID, common.ToNano(req.Bet))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roundId":    result.RoundID,
		"startedAt":  result.StartedAt.UnixMilli(),
		"newBalance": common.FromNano(result.NewBalance),
	})
}

func (s *Server) handleCrashCashout(c *gin.Context) {
	var req crashCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	result, err := s.crash.Cashout(c.Request.Context(), req.TelegramID, req.RoundID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCrashResult(c, result)
}

func (s *Server) handleCrashPlay(c *gin.Context) {
	var req crashPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TelegramID == 0 {
		respondError(c, common.ErrTelegramIDRequired)
		return
	}

	var (
		result *crash.Result
		err    error
	)
	if req.CashedOut {
		result, err = s.crash.Cashout(c.Request.Context(), req.TelegramID, req.RoundID)
	} else {
		result, err = s.crash.Settle(c.Request.Context(), req.TelegramID, req.RoundID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	writeCrashResult(c, result)
}

func writeCrashResult(c *gin.Context, result *crash.Result) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"cashedOut":  result.CashedOut,
		"multiplier": result.Multiplier,
		"crashPoint": result.CrashPoint,
		"profit":     common.FromNano(result.Profit),
		"newBalance": common.FromNano(result.NewBalance),
	})
}

var crashUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const crashTickInterval = 100 * time.Millisecond

// handleCrashWS стримит клиенту рост множителя активного раунда.
// Источник правды — серверные часы: клиент рисует то, что ему прислали.
// Последнее сообщение несёт crashed=true и точку краша, после чего
// соединение закрывается. Расчёт раунда идёт отдельным HTTP-запросом.
func (s *Server) handleCrashWS(c *gin.Context) {
	roundID := c.Query("roundId")
	if roundID == "" {
		respondError(c, common.ErrRoundNotFound)
		return
	}

	round, err := s.crash.PeekRound(c.Request.Context(), roundID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := crashUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Не удалось открыть websocket")
		return
	}
	defer conn.Close()

	rate := s.crash.GrowthRate()
	crashAt := crash.CrashTime(round.StartedAt, round.CrashPoint, rate)

	ticker := time.NewTicker(crashTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case now := <-ticker.C:
			if now.After(crashAt) {
				conn.WriteJSON(gin.H{
					"crashed":    true,
					"crashPoint": round.CrashPoint,
				})
				return
			}
			msg := gin.H{
				"crashed":    false,
				"multiplier": crash.MultiplierAt(round.StartedAt, now, rate),
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
