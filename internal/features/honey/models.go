package honey

import (
	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// RewardResult: итог одного начисления.
type RewardResult struct {
	Reward     int64 `json:"reward"`     // Начислено сейчас (может быть 0)
	Honey      int64 `json:"honey"`      // Баланс после начисления
	TodayHoney int64 `json:"todayHoney"` // Заработано сегодня
	TotalHoney int64 `json:"totalHoney"` // Заработано за всё время
	FirstToday bool  `json:"firstToday"` // Первая награда дня (крутили колесо)
}

// Correct приводит устаревшее дневное состояние к дате today:
// todayHoney = 0, lastDailyReset = today. Второй результат сообщает,
// было ли состояние устаревшим. Повторный вызов с той же датой ничего не меняет.
func Correct(state profiles.DailyState, today clock.Date) (profiles.DailyState, bool) {
	if state.LastDailyReset == today {
		return state, false
	}
	state.TodayHoney = 0
	state.LastDailyReset = today
	return state, true
}
