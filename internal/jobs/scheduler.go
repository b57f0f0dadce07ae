// Package jobs управляет фоновыми задачами.
// scheduler.go держит cron для обслуживания (очистка лимитов, сессий,
// счётчиков неудачных входов) и запускает цикл дневного сброса.
// Сама граница суток через cron не считается: см. daily_reset.go.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/clock"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron  *cron.Cron
	zone  *clock.Zone
	daily *DailyReset

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler создаёт планировщик в опорном часовом поясе.
func NewScheduler(zone *clock.Zone, daily *DailyReset) *Scheduler {
	c := cron.New(
		cron.WithLocation(zone.Location()),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log.StandardLogger()))),
	)

	return &Scheduler{
		cron:  c,
		zone:  zone,
		daily: daily,
	}
}

// AddMaintenance регистрирует обслуживающую задачу по cron-выражению
// (например, "@every 5m").
func (s *Scheduler) AddMaintenance(name, spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.WithField("task", name).Debug("[CRON] Обслуживание")
		fn()
	})
	if err != nil {
		return fmt.Errorf("ошибка регистрации задачи %s: %w", name, err)
	}
	return nil
}

// Start запускает cron и цикл дневного сброса.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.daily.Run(ctx)
	}()

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.zone.Name())
}

// Stop останавливает cron и цикл сброса и ждёт их завершения.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	log.Info("Планировщик задач остановлен")
}

// NextReset: момент следующего дневного сброса.
func (s *Scheduler) NextReset() time.Time {
	return s.daily.NextBoundary()
}
