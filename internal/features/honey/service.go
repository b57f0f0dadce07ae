// service.go: начисление мёда и дневной сброс поверх хранилища профилей.
package honey

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// Service начисляет мёд и сбрасывает дневные счётчики.
//
// Начисление для одного игрока: атомарный цикл «прочитать, посчитать, записать»
// под замком этого игрока. Разные игроки обрабатываются параллельно.
// Общий сброс берёт resetMu на запись и ждёт завершения всех начислений.
type Service struct {
	store profiles.Store
	zone  *clock.Zone
	clock clock.Clock
	rng   Roller

	resetMu sync.RWMutex
	locks   *common.KeyedMutex
}

// NewService создаёт сервис мёда. Если rng == nil, используется DefaultRoller.
func NewService(store profiles.Store, zone *clock.Zone, clk clock.Clock, rng Roller) *Service {
	if rng == nil {
		rng = DefaultRoller
	}
	return &Service{
		store: store,
		zone:  zone,
		clock: clk,
		rng:   rng,
		locks: common.NewKeyedMutex(),
	}
}

// Today: текущая гражданская дата в опорном поясе.
func (s *Service) Today() clock.Date {
	return s.zone.Today(s.clock.Now())
}

// Zone возвращает опорный часовой пояс.
func (s *Service) Zone() *clock.Zone { return s.zone }

// AddHoney начисляет игроку очередную награду.
func (s *Service) AddHoney(ctx context.Context, userID int64) (*RewardResult, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	unlock := s.locks.Lock(userID)
	defer unlock()

	today := s.Today()

	state, err := s.store.GetDailyState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения дневного состояния: %w", err)
	}
	state, _ = Correct(state, today)

	reward := ComputeReward(state.TodayHoney, s.rng)

	updated, err := s.store.ApplyReward(ctx, userID, reward,
		state.TodayHoney+reward, state.TotalHoney+reward, today)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления мёда: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"reward":      reward,
		"today_honey": updated.TodayHoney,
	}).Debug("Мёд начислен")

	return &RewardResult{
		Reward:     reward,
		Honey:      updated.Honey,
		TodayHoney: updated.TodayHoney,
		TotalHoney: updated.TotalHoney,
		FirstToday: state.TodayHoney == 0,
	}, nil
}

// AddHoneyWith начисляет награду и применяет extra к тому же профилю
// одной записью в хранилище. Если запись не удалась, не меняется ничего.
func (s *Service) AddHoneyWith(ctx context.Context, userID int64, extra func(p *profiles.Profile) error) (*RewardResult, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	unlock := s.locks.Lock(userID)
	defer unlock()

	today := s.Today()
	var res RewardResult

	_, err := s.store.Update(ctx, userID, func(p *profiles.Profile) error {
		state, _ := Correct(p.DailyState(), today)
		reward := ComputeReward(state.TodayHoney, s.rng)

		p.Honey = state.Honey + reward
		p.TodayHoney = state.TodayHoney + reward
		p.Stats.TotalHoney = state.TotalHoney + reward
		p.LastDailyReset = today

		res = RewardResult{
			Reward:     reward,
			Honey:      p.Honey,
			TodayHoney: p.TodayHoney,
			TotalHoney: p.Stats.TotalHoney,
			FirstToday: state.TodayHoney == 0,
		}
		if extra != nil {
			return extra(p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления мёда: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"reward":      res.Reward,
		"today_honey": res.TodayHoney,
	}).Debug("Мёд начислен")

	return &res, nil
}

// State возвращает дневное состояние игрока. Если оно устарело,
// исправление сразу сохраняется.
func (s *Service) State(ctx context.Context, userID int64) (profiles.DailyState, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	unlock := s.locks.Lock(userID)
	defer unlock()

	state, err := s.store.GetDailyState(ctx, userID)
	if err != nil {
		return profiles.DailyState{}, fmt.Errorf("ошибка чтения дневного состояния: %w", err)
	}

	corrected, stale := Correct(state, s.Today())
	if !stale {
		return state, nil
	}

	updated, err := s.store.ApplyReward(ctx, userID, 0, 0, corrected.TotalHoney, corrected.LastDailyReset)
	if err != nil {
		return profiles.DailyState{}, fmt.Errorf("ошибка исправления дневного состояния: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"was":     state.LastDailyReset.String(),
		"today":   updated.LastDailyReset.String(),
	}).Debug("Устаревший дневной счётчик обнулён")
	return updated, nil
}

// DailyReset обнуляет дневной мёд всех игроков и ставит дату сброса today.
// На время сброса начисления приостанавливаются.
func (s *Service) DailyReset(ctx context.Context, today clock.Date) (int, error) {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	n, err := s.store.ResetAllDaily(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("ошибка дневного сброса: %w", err)
	}

	log.WithFields(log.Fields{"date": today.String(), "profiles": n}).Info("Дневной мёд сброшен")
	return n, nil
}
