// Package profiles хранит профили игроков: мёд, дневные счётчики,
// статистику, коллекцию и текущий вопрос.
// models.go описывает структуру профиля в том виде, в каком она лежит в users.json.
package profiles

import (
	"time"

	"hivefest.ru/honey-server/internal/clock"
)

// DefaultFavImage: аватар нового игрока.
const DefaultFavImage = "./assets/HiveFest.png"

// Profile: запись игрока.
type Profile struct {
	UserID           int64          `json:"-"`                // Telegram user ID (ключ в users.json)
	Username         string         `json:"username"`         // Отображаемое имя
	AccountCreatedAt time.Time      `json:"accountCreatedAt"` // Когда профиль создан
	Collection       map[string]int `json:"collection"`       // ID приза → количество
	Honey            int64          `json:"honey"`            // Мёд на руках
	TodayHoney       int64          `json:"todayHoney"`       // Заработано с последнего сброса
	LastDailyReset   clock.Date     `json:"lastDailyReset"`   // Дата последнего сброса (опорный пояс)
	FavImage         string         `json:"favCharacImage"`   // Путь к аватару
	Stats            Stats          `json:"stats"`
	Question         Question       `json:"actualQuestion"` // Текущий вопрос игрока
}

// Stats: накопительная статистика игрока.
type Stats struct {
	BigPrizes   int64 `json:"bigPrizes"`
	GreatPrizes int64 `json:"greatPrizes"`
	GoodPrizes  int64 `json:"goodPrizes"`
	Played      int64 `json:"played"`     // Верных ответов за всё время
	TotalHoney  int64 `json:"totalHoney"` // Заработано за всё время, никогда не уменьшается
}

// Question: арифметический вопрос, который сейчас видит игрок.
type Question struct {
	Type string `json:"type"` // sum | subtraction | multiplication | division
	N1   int    `json:"n1"`
	N2   int    `json:"n2"`
}

// DailyState: часть профиля, с которой работает движок наград.
type DailyState struct {
	Honey          int64
	TodayHoney     int64
	TotalHoney     int64
	LastDailyReset clock.Date
}

// DailyState возвращает дневное состояние профиля.
func (p *Profile) DailyState() DailyState {
	return DailyState{
		Honey:          p.Honey,
		TodayHoney:     p.TodayHoney,
		TotalHoney:     p.Stats.TotalHoney,
		LastDailyReset: p.LastDailyReset,
	}
}

// Clone возвращает глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Collection = make(map[string]int, len(p.Collection))
	for k, v := range p.Collection {
		c.Collection[k] = v
	}
	return &c
}

// UniqueItems: сколько разных призов в коллекции (с количеством > 0).
func (p *Profile) UniqueItems() int64 {
	var n int64
	for _, count := range p.Collection {
		if count > 0 {
			n++
		}
	}
	return n
}

// TotalItems: сумма всех призов в коллекции.
func (p *Profile) TotalItems() int64 {
	var n int64
	for _, count := range p.Collection {
		n += int64(count)
	}
	return n
}
