// Package server собирает HTTP API мини-аппа: роуты, middleware,
// перевод ошибок сервисов в HTTP-статусы.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/crash"
	"gifts-wheel/internal/features/ledger"
	"gifts-wheel/internal/features/payments"
	"gifts-wheel/internal/features/promo"
	"gifts-wheel/internal/features/users"
	"gifts-wheel/internal/features/wheel"
)

// Server — HTTP-сервер API. Все зависимости передаются явно при сборке.
type Server struct {
	httpServer *http.Server

	cfg      *config.Config
	redis    *redis.Client
	users    *users.Service
	wheel    *wheel.Service
	crash    *crash.Service
	promo    *promo.Service
	payments *payments.Service
	ledger   *ledger.Repository
}

// New создаёт сервер и регистрирует роуты.
func New(
	cfg *config.Config,
	redisClient *redis.Client,
	userService *users.Service,
	wheelService *wheel.Service,
	crashService *crash.Service,
	promoService *promo.Service,
	paymentService *payments.Service,
	ledgerRepo *ledger.Repository,
) *Server {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		redis:    redisClient,
		users:    userService,
		wheel:    wheelService,
		crash:    crashService,
		promo:    promoService,
		payments: paymentService,
		ledger:   ledgerRepo,
	}

	engine := gin.New()
	engine.Use(s.recovery(), s.requestLogger(), s.cors())

	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)

	// Всё, что идентифицирует пользователя, проходит через rate limit
	limited := api.Group("", s.rateLimit())
	limited.GET("/me", s.handleMe)
	limited.GET("/transactions", s.handleTransactions)
	limited.POST("/spin", s.handleSpin)
	limited.POST("/prize/keep", s.handlePrizeKeep)
	limited.POST("/prize/sell", s.handlePrizeSell)
	limited.POST("/inventory/sell", s.handleInventorySell)
	limited.POST("/promo/apply", s.handlePromoApply)
	limited.POST("/crash/start", s.handleCrashStart)
	limited.POST("/crash/cashout", s.handleCrashCashout)
	limited.POST("/crash/play", s.handleCrashPlay)
	limited.POST("/ton/deposit/create", s.handleDepositCreate)
	limited.POST("/ton/deposit/check", s.handleDepositCheck)
	limited.POST("/ton/withdraw", s.handleWithdraw)

	api.GET("/crash/ws", s.handleCrashWS)
	api.GET("/ton/balance/:address", s.handleAddressBalance)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Run запускает сервер и блокируется до его остановки.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Server is running",
	})
}
