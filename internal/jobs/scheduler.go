// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическую проверку
// ожидающих депозитов и ночную сверку балансов.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/features/ledger"
	"gifts-wheel/internal/features/payments"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	paymentService *payments.Service
	ledgerRepo     *ledger.Repository
	cfg            *config.Config
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(paymentService *payments.Service, ledgerRepo *ledger.Repository, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:           cron.New(cron.WithLocation(loc)),
		paymentService: paymentService,
		ledgerRepo:     ledgerRepo,
		cfg:            cfg,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Проверка ожидающих депозитов: клиент мог закрыть мини-апп
	// до окончания поллинга, перевод при этом уже ушёл в цепочку
	s.cron.AddFunc(s.cfg.DepositSweepSpec, func() {
		log.Debug("[CRON] Проверка ожидающих депозитов")
		if err := s.paymentService.SweepPending(ctx, s.cfg.DepositSweepMaxAge); err != nil {
			log.WithError(err).Error("[CRON] Ошибка проверки депозитов")
		}
	})

	// Ночная сверка балансов против журнала транзакций
	s.cron.AddFunc("0 4 * * *", func() {
		log.Info("[CRON] Сверка балансов")
		reports, err := s.ledgerRepo.FindDrift(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка сверки")
			return
		}
		for _, r := range reports {
			log.WithFields(log.Fields{
				"telegram_id": r.TelegramID,
				"balance":     common.FormatTON(r.Balance),
				"expected":    common.FormatTON(r.Expected),
				"drift":       common.FormatSigned(r.Drift),
			}).Warn("[CRON] Баланс расходится с журналом")
		}
		if len(reports) == 0 {
			log.Info("[CRON] Сверка прошла без расхождений")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
