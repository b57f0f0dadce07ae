package profiles

import (
	"context"

	"hivefest.ru/honey-server/internal/clock"
)

// Store: хранилище профилей.
//
// Все методы, меняющие данные, атомарны: либо изменение целиком сохранено,
// либо не применено вовсе. Отсутствующий профиль: common.ErrNotFound.
type Store interface {
	// Create добавляет новый профиль (common.ErrAlreadyExists, если ID занят).
	Create(ctx context.Context, p *Profile) error
	// Get возвращает копию профиля.
	Get(ctx context.Context, userID int64) (*Profile, error)
	// List возвращает копии всех профилей.
	List(ctx context.Context) ([]*Profile, error)
	// Count возвращает число профилей.
	Count(ctx context.Context) (int, error)
	// Update читает профиль, применяет fn и сохраняет результат одной записью.
	// Если fn вернула ошибку, ничего не сохраняется.
	Update(ctx context.Context, userID int64, fn func(p *Profile) error) (*Profile, error)

	// GetDailyState возвращает дневное состояние игрока.
	GetDailyState(ctx context.Context, userID int64) (DailyState, error)
	// ApplyReward начисляет награду: honey += reward, а дневной и накопительный
	// счётчики и дату сброса выставляет в переданные значения.
	ApplyReward(ctx context.Context, userID int64, reward, todayHoney, totalHoney int64, today clock.Date) (DailyState, error)
	// ResetAllDaily обнуляет todayHoney у всех и ставит lastDailyReset = today.
	// Возвращает число затронутых профилей.
	ResetAllDaily(ctx context.Context, today clock.Date) (int, error)

	Close() error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*Repository)(nil)
)
