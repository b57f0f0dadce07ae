// daily_reset.go: цикл дневного сброса мёда.
//
// Граница суток каждый раз вычисляется заново в опорном поясе,
// поэтому сутки в 23 и 25 часов (переход на летнее время) обрабатываются верно.
package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/clock"
)

// Resetter обнуляет дневной мёд всех игроков.
type Resetter interface {
	DailyReset(ctx context.Context, today clock.Date) (int, error)
}

// DailyReset будит Resetter в каждую местную полночь опорного пояса.
type DailyReset struct {
	resetter Resetter
	zone     *clock.Zone
	clock    clock.Clock
	after    func(time.Duration) <-chan time.Time
}

// NewDailyReset создаёт цикл сброса на системных часах.
func NewDailyReset(resetter Resetter, zone *clock.Zone, clk clock.Clock) *DailyReset {
	return &DailyReset{
		resetter: resetter,
		zone:     zone,
		clock:    clk,
		after:    time.After,
	}
}

// NextBoundary: ближайшая граница суток после текущего момента.
func (d *DailyReset) NextBoundary() time.Time {
	return d.zone.NextMidnight(d.clock.Now())
}

// Run ждёт границу, сбрасывает, и так до отмены ctx.
// Ошибка или паника в сбросе не останавливает цикл.
func (d *DailyReset) Run(ctx context.Context) {
	var last time.Time

	for {
		now := d.clock.Now()

		// Одна граница срабатывает один раз, даже если часы проснулись раньше неё.
		from := now
		if last.After(from) {
			from = last
		}
		next := d.zone.NextMidnight(from)

		log.WithFields(log.Fields{
			"next": next.In(d.zone.Location()).Format(time.RFC3339),
			"wait": next.Sub(now).Round(time.Second).String(),
		}).Info("[RESET] Следующий дневной сброс запланирован")

		if !d.waitUntil(ctx, next) {
			log.Info("[RESET] Цикл дневного сброса остановлен")
			return
		}

		today := d.zone.Today(next)
		n, err := d.fire(ctx, today)
		if err != nil {
			log.WithError(err).WithField("date", today.String()).Error("[RESET] Ошибка дневного сброса")
		} else {
			log.WithFields(log.Fields{"date": today.String(), "profiles": n}).Info("[RESET] Дневной сброс выполнен")
		}

		last = next
	}
}

// waitUntil ждёт, пока часы не дойдут до момента at. Таймер идёт по
// монотонным часам и после перевода часов назад срабатывает раньше границы:
// тогда ждём остаток. Возвращает false при отмене ctx.
func (d *DailyReset) waitUntil(ctx context.Context, at time.Time) bool {
	for {
		wait := at.Sub(d.clock.Now())
		if wait <= 0 {
			return ctx.Err() == nil
		}
		select {
		case <-ctx.Done():
			return false
		case <-d.after(wait):
		}
	}
}

// fire выполняет один сброс, превращая панику в ошибку.
func (d *DailyReset) fire(ctx context.Context, today clock.Date) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"component": "daily_reset",
				"panic":     fmt.Sprintf("%v", r),
				"stack":     string(debug.Stack()),
			}).Error("ПАНИКА при дневном сбросе — восстановлено")
			err = fmt.Errorf("паника при дневном сбросе: %v", r)
		}
	}()
	return d.resetter.DailyReset(ctx, today)
}
