// Package payments — service.go: бизнес-логика депозитов и выводов.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/users"
	"gifts-wheel/internal/ton"
)

type Service struct {
	repo     *Repository
	userRepo *users.Repository
	ton      *ton.Client
	cfg      *config.Config
}

func NewService(repo *Repository, userRepo *users.Repository, tonClient *ton.Client, cfg *config.Config) *Service {
	return &Service{repo: repo, userRepo: userRepo, ton: tonClient, cfg: cfg}
}

// DepositInvoice — реквизиты для оплаты депозита.
type DepositInvoice struct {
	DepositID string // токен для комментария перевода
	Address   string // адрес кошелька-получателя
}

// CheckResult — результат проверки депозита.
type CheckResult struct {
	Completed  bool
	Amount     int64 // наноTON, 0 если не найден
	NewBalance int64 // актуален только при Completed
}

// WithdrawResult — результат создания заявки на вывод.
type WithdrawResult struct {
	WithdrawalID int64
	NewBalance   int64
}

// CreateDeposit создаёт ожидающий депозит и возвращает реквизиты.
// Токен уникален и попадает в комментарий перевода: по нему
// депозит сопоставляется с транзакцией в цепочке.
func (s *Service) CreateDeposit(ctx context.Context, telegramID int64) (*DepositInvoice, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	depositID := mintDepositID(telegramID)
	if err := s.repo.CreateDeposit(ctx, user.ID, depositID, s.cfg.TONDepositAddress); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"telegram_id": telegramID,
		"deposit_id":  depositID,
	}).Info("Создан депозит")

	return &DepositInvoice{DepositID: depositID, Address: s.cfg.TONDepositAddress}, nil
}

// CheckDeposit ищет в цепочке перевод с токеном депозита в комментарии.
// Владелец определяется по строке депозита; telegramID передаётся
// опционально и служит только перекрёстной проверкой владения.
// Вызов идемпотентен: уже завершённый депозит возвращается из БД без
// обращения к цепочке и без повторного начисления.
func (s *Service) CheckDeposit(ctx context.Context, telegramID int64, depositID string) (*CheckResult, error) {
	dep, err := s.repo.GetDeposit(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if telegramID != 0 {
		user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		if dep.UserID != user.ID {
			return nil, common.ErrDepositNotFound
		}
	}
	if dep.Status == DepositStatusCompleted {
		balance, err := s.userRepo.GetBalance(ctx, dep.UserID)
		if err != nil {
			return nil, err
		}
		return &CheckResult{Completed: true, Amount: dep.Amount, NewBalance: balance}, nil
	}

	transfer, err := s.ton.FindIncomingTransfer(ctx, dep.Address, s.cfg.MinDeposit(), depositID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return &CheckResult{Completed: false}, nil
	}

	credited, err := s.repo.CompleteDeposit(ctx, depositID, transfer.Amount, transfer.Hash)
	if err != nil {
		return nil, err
	}
	if credited {
		log.WithFields(log.Fields{
			"user_id":    dep.UserID,
			"deposit_id": depositID,
			"amount":     common.FormatTON(transfer.Amount),
			"tx_hash":    transfer.Hash,
		}).Info("Депозит зачислен")
	}

	balance, err := s.userRepo.GetBalance(ctx, dep.UserID)
	if err != nil {
		return nil, err
	}
	return &CheckResult{Completed: true, Amount: transfer.Amount, NewBalance: balance}, nil
}

// SweepPending проверяет все ожидающие депозиты не старше maxAge
// (фоновая задача). Ошибки отдельных депозитов логируются и не
// прерывают обход.
func (s *Service) SweepPending(ctx context.Context, maxAge time.Duration) error {
	deposits, err := s.repo.ListPendingDeposits(ctx, maxAge)
	if err != nil {
		return err
	}

	for _, dep := range deposits {
		transfer, err := s.ton.FindIncomingTransfer(ctx, dep.Address, s.cfg.MinDeposit(), dep.DepositID)
		if err != nil {
			log.WithError(err).WithField("deposit_id", dep.DepositID).Warn("Ошибка проверки депозита")
			continue
		}
		if transfer == nil {
			continue
		}
		credited, err := s.repo.CompleteDeposit(ctx, dep.DepositID, transfer.Amount, transfer.Hash)
		if err != nil {
			log.WithError(err).WithField("deposit_id", dep.DepositID).Error("Ошибка завершения депозита")
			continue
		}
		if credited {
			log.WithFields(log.Fields{
				"deposit_id": dep.DepositID,
				"amount":     common.FormatTON(transfer.Amount),
			}).Info("Депозит зачислен фоновой проверкой")
		}
	}
	return nil
}

// Withdraw списывает сумму с баланса и создаёт заявку на вывод.
func (s *Service) Withdraw(ctx context.Context, telegramID int64, address string, amount int64) (*WithdrawResult, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if !ton.ValidateAddress(address) {
		return nil, common.ErrInvalidAddress
	}

	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	withdrawalID, newBalance, err := s.repo.CreateWithdrawal(ctx, user.ID, address, amount)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"telegram_id":   telegramID,
		"withdrawal_id": withdrawalID,
		"amount":        common.FormatTON(amount),
	}).Info("Создана заявка на вывод")

	return &WithdrawResult{WithdrawalID: withdrawalID, NewBalance: newBalance}, nil
}

// AddressBalance возвращает баланс произвольного адреса в цепочке (наноTON).
func (s *Service) AddressBalance(ctx context.Context, address string) (int64, error) {
	if !ton.ValidateAddress(address) {
		return 0, common.ErrInvalidAddress
	}
	return s.ton.GetBalance(ctx, address)
}

// PendingWithdrawals возвращает неотправленные выводы (админка).
func (s *Service) PendingWithdrawals(ctx context.Context) ([]*Withdrawal, error) {
	return s.repo.ListPendingWithdrawals(ctx)
}

// MarkSent помечает вывод отправленным (админка).
func (s *Service) MarkSent(ctx context.Context, withdrawalID int64) (bool, error) {
	return s.repo.MarkWithdrawalSent(ctx, withdrawalID)
}

// mintDepositID выпускает токен-комментарий вида DEP-123456-1756710000-1a2b3c4d.
// Метка времени упрощает ручной разбор в обозревателе цепочки, суффикс
// гарантирует уникальность.
func mintDepositID(telegramID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("DEP-%d-%d-%s", telegramID, time.Now().Unix(), suffix)
}
