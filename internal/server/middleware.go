package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/db/redisdb"
)

// cors разрешает запросы из веб-аппа. Мини-апп открывается внутри
// Telegram с netlify-origin, поэтому политика открытая.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger пишет строку на каждый запрос.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("Запрос завершился ошибкой")
		} else {
			entry.Info("Запрос обработан")
		}
	}
}

// recovery перехватывает панику обработчика, сервер продолжает работать.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
				}).Error("Паника в обработчике запроса")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Внутренняя ошибка сервера",
				})
			}
		}()
		c.Next()
	}
}

// rateLimit ограничивает частоту запросов: счётчик в Redis на пару
// (telegramId, путь) с TTL окна. Запрос без telegramId пропускается —
// его отклонит валидация обработчика.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := peekTelegramID(c)
		if telegramID == 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf(redisdb.KeyRateLimit, telegramID, c.Request.URL.Path)
		count, err := s.redis.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Redis недоступен — пропускаем, лимит не критичнее доступности
			log.WithError(err).Warn("Ошибка rate limit, запрос пропущен")
			c.Next()
			return
		}
		if count == 1 {
			s.redis.Expire(c.Request.Context(), key, s.cfg.RateLimitWindow)
		}
		if count > int64(s.cfg.RateLimitRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Слишком много запросов, подождите",
			})
			return
		}
		c.Next()
	}
}

// Сколько байт тела читаем ради telegramId. JSON-тела этого API —
// десятки байт; всё, что больше лимита, обработчик дочитает сам.
const maxPeekBody = 4 << 10

// peekTelegramID достаёт telegramId из query или тела запроса,
// не мешая обработчику прочитать тело повторно.
func peekTelegramID(c *gin.Context) int64 {
	if raw := c.Query("telegramId"); raw != "" {
		id, _ := strconv.ParseInt(raw, 10, 64)
		return id
	}
	if c.Request.Body == nil {
		return 0
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBody))
	if err != nil {
		return 0
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))

	var peeked struct {
		TelegramID int64 `json:"telegramId"`
	}
	if err := json.Unmarshal(body, &peeked); err != nil {
		return 0
	}
	return peeked.TelegramID
}
