// Package users — service.go содержит бизнес-логику работы с пользователями.
package users

import (
	"context"

	"gifts-wheel/internal/config"
)

// Service управляет пользователями.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// GetOrCreate возвращает пользователя, создавая его при первом контакте
// со стартовым балансом из конфигурации.
func (s *Service) GetOrCreate(ctx context.Context, telegramID int64, username string) (*User, error) {
	return s.repo.GetOrCreate(ctx, telegramID, username, s.cfg.StartingBalance())
}

// Get возвращает пользователя по Telegram ID (без создания).
func (s *Service) Get(ctx context.Context, telegramID int64) (*User, error) {
	return s.repo.GetByTelegramID(ctx, telegramID)
}

// GetInventory возвращает инвентарь пользователя.
func (s *Service) GetInventory(ctx context.Context, userID int64) ([]*InventoryItem, error) {
	return s.repo.GetInventory(ctx, userID)
}

// CountInventory возвращает количество подарков в инвентаре.
func (s *Service) CountInventory(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountInventory(ctx, userID)
}
