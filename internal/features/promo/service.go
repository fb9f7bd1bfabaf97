// Package promo — service.go: проверка кода и применение бонуса.
package promo

import (
	"context"

	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/users"
)

// Service управляет промокодами.
type Service struct {
	repo     *Repository
	userRepo *users.Repository
	codes    map[string]int64 // код → сумма в наноTON
}

// NewService создаёт сервис промокодов. Таблица кодов берётся из
// конфигурации и не меняется во время работы.
func NewService(repo *Repository, userRepo *users.Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, userRepo: userRepo, codes: cfg.PromoCodes}
}

// ApplyResult — итог применения промокода.
type ApplyResult struct {
	Amount     int64 // наноTON
	NewBalance int64
}

// Apply применяет промокод. Код сравнивается без учёта регистра.
// Ошибки: ErrInvalidPromoCode — кода нет в таблице,
// ErrPromoAlreadyRedeemed — пользователь уже применял этот код.
func (s *Service) Apply(ctx context.Context, telegramID int64, code string) (*ApplyResult, error) {
	normalized := common.NormalizeCode(code)

	amount, ok := s.codes[normalized]
	if !ok {
		return nil, common.ErrInvalidPromoCode
	}

	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	newBalance, err := s.repo.Redeem(ctx, user.ID, normalized, amount)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"code":    normalized,
		"amount":  common.FormatTON(amount),
	}).Info("Промокод применён")

	return &ApplyResult{Amount: amount, NewBalance: newBalance}, nil
}
