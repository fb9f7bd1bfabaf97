// Package crash — service.go координирует раунд от ставки до расчёта.
package crash

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/users"
)

// Service управляет краш-игрой.
type Service struct {
	repo      *Repository
	userRepo  *users.Repository
	rounds    *RoundStore
	generator *Generator
	cfg       *config.Config

	// now вынесено в поле, чтобы тесты могли подменить часы
	now func() time.Time
}

// NewService создаёт сервис краша.
func NewService(repo *Repository, userRepo *users.Repository, rounds *RoundStore, generator *Generator, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		rounds:    rounds,
		generator: generator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// StartResult — ответ на старт раунда. Точка краша не раскрывается.
type StartResult struct {
	RoundID    string
	StartedAt  time.Time
	NewBalance int64
}

// Start начинает раунд: списывает ставку (транзакция crash_bet),
// разыгрывает точку краша и сохраняет раунд в Redis.
func (s *Service) Start(ctx context.Context, telegramID int64, bet int64) (*StartResult, error) {
	if bet <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if max := common.ToNano(s.cfg.CrashMaxBetTON); max > 0 && bet > max {
		return nil, common.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	newBalance, err := s.repo.DebitBet(ctx, user.ID, bet)
	if err != nil {
		return nil, err
	}

	round := &Round{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Bet:        bet,
		CrashPoint: s.generator.DrawCrashPoint(),
		StartedAt:  s.now().UTC(),
	}

	if err := s.rounds.Save(ctx, round); err != nil {
		// Ставка уже списана. Раунд не стартовал — фиксируем проигрыш
		// нулевым раундом нельзя, поэтому возвращаем ошибку: клиент
		// увидит сбой, а аудит покажет crash_bet без раунда.
		log.WithError(err).WithField("user_id", user.ID).Error("Не удалось сохранить раунд")
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"round_id": round.ID,
		"bet":      common.FormatTON(bet),
	}).Info("Раунд краша начат")

	return &StartResult{
		RoundID:    round.ID,
		StartedAt:  round.StartedAt,
		NewBalance: newBalance,
	}, nil
}

// Cashout пытается забрать выигрыш. Множитель вычисляется по серверному
// времени; если раунд уже разбился — фиксируется проигрыш.
// Раунд изымается атомарно: повторный кэшаут вернёт ErrRoundNotFound.
func (s *Service) Cashout(ctx context.Context, telegramID int64, roundID string) (*Result, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	round, err := s.rounds.Consume(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.UserID != user.ID {
		// Чужой раунд изъят по чужому id — не расчёт, просто отказ.
		// Вернуть его нельзя (изъятие атомарное), владелец получит
		// ErrRoundNotFound; id раундов — UUID, подбор нереалистичен.
		return nil, common.ErrRoundNotFound
	}

	now := s.now().UTC()
	crashAt := CrashTime(round.StartedAt, round.CrashPoint, s.cfg.CrashGrowthRate)

	if !now.Before(crashAt) {
		// Кэшаут пришёл после точки краша — проигрыш
		return s.settleLoss(ctx, round)
	}

	multiplier := MultiplierAt(round.StartedAt, now, s.cfg.CrashGrowthRate)
	payout := int64(float64(round.Bet) * multiplier)

	newBalance, err := s.repo.SettleWin(ctx, user.ID, round.Bet, payout, multiplier)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    user.ID,
		"round_id":   round.ID,
		"multiplier": multiplier,
		"payout":     common.FormatTON(payout),
	}).Info("Кэшаут выполнен")

	return &Result{
		CashedOut:  true,
		Multiplier: multiplier,
		CrashPoint: round.CrashPoint,
		Bet:        round.Bet,
		Payout:     payout,
		Profit:     payout - round.Bet,
		NewBalance: newBalance,
	}, nil
}

// Settle закрывает раунд как проигранный (клиент сообщил, что раунд
// завершился без кэшаута, либо сдался). Присланные клиентом множители
// игнорируются: записывается серверная точка краша.
func (s *Service) Settle(ctx context.Context, telegramID int64, roundID string) (*Result, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	round, err := s.rounds.Consume(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.UserID != user.ID {
		return nil, common.ErrRoundNotFound
	}

	return s.settleLoss(ctx, round)
}

func (s *Service) settleLoss(ctx context.Context, round *Round) (*Result, error) {
	if err := s.repo.SettleLoss(ctx, round.UserID, round.Bet, round.CrashPoint); err != nil {
		return nil, err
	}

	balance, err := s.userRepo.GetBalance(ctx, round.UserID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":     round.UserID,
		"round_id":    round.ID,
		"crash_point": round.CrashPoint,
	}).Info("Раунд краша проигран")

	return &Result{
		CashedOut:  false,
		CrashPoint: round.CrashPoint,
		Bet:        round.Bet,
		Payout:     0,
		Profit:     -round.Bet,
		NewBalance: balance,
	}, nil
}

// PeekRound возвращает раунд для websocket-ленты (без изъятия).
func (s *Service) PeekRound(ctx context.Context, roundID string) (*Round, error) {
	return s.rounds.Peek(ctx, roundID)
}

// GrowthRate — скорость роста множителя (для ленты и клиента).
func (s *Service) GrowthRate() float64 {
	return s.cfg.CrashGrowthRate
}
