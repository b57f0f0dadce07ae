// Package honey считает награды: сколько мёда получает игрок за верный ответ.
// rewards.go содержит таблицы наград. Чем больше игрок заработал сегодня,
// тем меньше следующая награда.
package honey

import "math/rand/v2"

// WheelSize: размер «колеса» первой награды дня: выпадает число из [0, WheelSize).
const WheelSize = 1000

// Roller: источник случайных чисел. IntN возвращает число из [0, n).
type Roller interface {
	IntN(n int) int
}

// defaultRoller: общий генератор math/rand/v2.
type defaultRoller struct{}

func (defaultRoller) IntN(n int) int { return rand.IntN(n) }

// DefaultRoller: генератор наград по умолчанию.
var DefaultRoller Roller = defaultRoller{}

// wheelSlice: участок колеса первой награды: число < Below даёт Reward.
type wheelSlice struct {
	Below  int
	Reward int64
}

// firstDayWheel: первая награда дня (60/20/10/5/4.5/0.5 %).
var firstDayWheel = []wheelSlice{
	{Below: 600, Reward: 25},
	{Below: 800, Reward: 50},
	{Below: 900, Reward: 100},
	{Below: 950, Reward: 200},
	{Below: 995, Reward: 500},
	{Below: 1000, Reward: 1000},
}

// band: ступень убывающей награды: при дневном мёде < Below
// награда равномерно выбирается из [Min, Max] включительно.
type band struct {
	Below int64
	Min   int64
	Max   int64
}

// bands: ступени по мёду, заработанному сегодня до награды.
// Последняя ступень действует для всех значений >= 7501.
var bands = []band{
	{Below: 501, Min: 25, Max: 50},
	{Below: 1001, Min: 10, Max: 20},
	{Below: 2001, Min: 5, Max: 10},
	{Below: 5001, Min: 1, Max: 5},
	{Below: 7501, Min: 0, Max: 2}, // Max включительно: 5001..7500 даёт 0, 1 или 2
}

var lastBand = band{Min: 0, Max: 1}

// ComputeReward вычисляет награду по дневному мёду до начисления.
// Отрицательное значение считается нулём. Нулевая награда: нормальный результат.
func ComputeReward(dailyBefore int64, rng Roller) int64 {
	if rng == nil {
		rng = DefaultRoller
	}
	if dailyBefore <= 0 {
		return wheelReward(rng.IntN(WheelSize))
	}

	b := bandFor(dailyBefore)
	return b.Min + int64(rng.IntN(int(b.Max-b.Min+1)))
}

// MaxReward: максимально возможная награда при данном дневном мёде.
func MaxReward(dailyBefore int64) int64 {
	if dailyBefore <= 0 {
		return firstDayWheel[len(firstDayWheel)-1].Reward
	}
	return bandFor(dailyBefore).Max
}

// wheelReward переводит число колеса [0, WheelSize) в награду.
func wheelReward(draw int) int64 {
	for _, s := range firstDayWheel {
		if draw < s.Below {
			return s.Reward
		}
	}
	return firstDayWheel[len(firstDayWheel)-1].Reward
}

func bandFor(dailyBefore int64) band {
	for _, b := range bands {
		if dailyBefore < b.Below {
			return b
		}
	}
	return lastBand
}
