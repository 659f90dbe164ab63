// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: секундный тик игровых залов,
// напоминания админам об очереди заявок и очистку истёкших сессий.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/features/admin"
	"winbingo.dev/bingo-bot/internal/features/game"
	"winbingo.dev/bingo-bot/internal/features/payments"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron            *cron.Cron
	gameService     *game.Service
	paymentsService *payments.Service
	adminService    *admin.Service
	adminIDs        []int64
	sendFunc        func(userID int64, text string)
}

// NewScheduler создаёт планировщик задач.
// Поле секунд включено: залы живут на секундном тике.
func NewScheduler(
	gameService *game.Service,
	paymentsService *payments.Service,
	adminService *admin.Service,
	adminIDs []int64,
	sendFunc func(userID int64, text string),
) *Scheduler {
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:            c,
		gameService:     gameService,
		paymentsService: paymentsService,
		adminService:    adminService,
		adminIDs:        adminIDs,
		sendFunc:        sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Тик игровых залов каждую секунду: старты раундов и объявление
	// номеров считаются от настенных часов, пропуск тика не страшен
	s.cron.AddFunc("* * * * * *", func() {
		s.gameService.Tick(time.Now())
	})

	// Напоминание админам о непустой очереди заявок каждые 10 минут
	s.cron.AddFunc("0 */10 * * * *", func() {
		n, err := s.paymentsService.CountPending(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка подсчёта очереди заявок")
			return
		}
		if n == 0 {
			return
		}
		text := fmt.Sprintf("⏰ В очереди %d %s — откройте панель («админ»)",
			n, pluralRequests(n))
		for _, adminID := range s.adminIDs {
			s.sendFunc(adminID, text)
		}
	})

	// Очистка истёкших админ-сессий и старых попыток входа раз в час
	s.cron.AddFunc("0 0 * * * *", func() {
		log.Debug("[CRON] Очистка истёкших сессий")
		if err := s.adminService.CleanupExpired(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка очистки сессий")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

func pluralRequests(n int) string {
	return common.Pluralize(n, "заявка", "заявки", "заявок")
}
