// Package wheel — service.go координирует спин от проверки баланса
// до решения по призу.
package wheel

import (
	"context"

	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/users"
)

// Service управляет колесом фортуны.
type Service struct {
	repo      *Repository
	userRepo  *users.Repository
	generator *Generator
	pending   *PendingStore
	cfg       *config.Config
}

// NewService создаёт сервис колеса.
func NewService(repo *Repository, userRepo *users.Repository, generator *Generator, pending *PendingStore, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		generator: generator,
		pending:   pending,
		cfg:       cfg,
	}
}

// SpinResult — результат спина.
type SpinResult struct {
	Prize      Prize
	NewBalance int64
}

// Spin выполняет полный цикл спина: розыгрыш приза, атомарное списание
// цены спина с записью игры и аудита, сохранение приза как ожидающего
// решения (keep/sell).
func (s *Service) Spin(ctx context.Context, telegramID int64) (*SpinResult, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	prize := s.generator.Draw()

	newBalance, err := s.repo.Spin(ctx, user.ID, s.cfg.SpinCost(), prize)
	if err != nil {
		return nil, err
	}

	if err := s.pending.Put(ctx, user.ID, prize); err != nil {
		// Спин уже оплачен и записан; без ожидающего приза keep/sell
		// вернут ErrNoPendingPrize — логируем и отдаём результат
		log.WithError(err).WithField("user_id", user.ID).Error("Не удалось сохранить ожидающий приз")
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"prize":   prize.Name,
		"balance": common.FormatTON(newBalance),
	}).Info("Спин выполнен")

	return &SpinResult{Prize: prize, NewBalance: newBalance}, nil
}

// Keep оставляет приз последнего спина в инвентаре.
// Если клиент прислал payload приза, он сверяется с сохранённым:
// клиент не может объявить себе произвольный приз.
func (s *Service) Keep(ctx context.Context, telegramID int64, claimed *PrizeDTO) error {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}

	prize, err := s.pending.Take(ctx, user.ID)
	if err != nil {
		return err
	}

	if claimed != nil && !prize.Matches(*claimed) {
		// Приз уже изъят из pending — возвращать его не нужно,
		// спорный спин остаётся неразрешённым
		return common.ErrPrizeMismatch
	}

	return s.repo.KeepPrize(ctx, user.ID, *prize)
}

// Sell продаёт приз последнего спина. Возвращает новый баланс.
func (s *Service) Sell(ctx context.Context, telegramID int64, claimed *PrizeDTO) (int64, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}

	prize, err := s.pending.Take(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	if claimed != nil && !prize.Matches(*claimed) {
		return 0, common.ErrPrizeMismatch
	}

	return s.repo.SellPrize(ctx, user.ID, *prize)
}

// SellFromInventory продаёт ранее оставленный приз по id предмета.
func (s *Service) SellFromInventory(ctx context.Context, telegramID, itemID int64) (int64, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	return s.repo.SellInventoryItem(ctx, user.ID, itemID)
}
