// Package leaderboard строит топ игроков по выбранной метрике.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// Metric: по чему строится топ.
type Metric string

// Доступные метрики.
const (
	MetricHoney        Metric = "honey"        // Мёд на руках
	MetricTotalHoney   Metric = "totalhoney"   // Мёд за всё время
	MetricUniqueHivees Metric = "uniquehivees" // Разных призов в коллекции
	MetricTotalHivees  Metric = "totalhivees"  // Всего призов в коллекции
)

// DefaultLimit: сколько строк в топе.
const DefaultLimit = 10

// Entry: строка топа.
type Entry struct {
	UserID   int64  `json:"-"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Value    int64  `json:"value"`
}

// ParseMetric разбирает метрику без учёта регистра.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MetricHoney, MetricTotalHoney, MetricUniqueHivees, MetricTotalHivees:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownMetric, raw)
}

// Title: название метрики для сообщений бота.
func (m Metric) Title() string {
	switch m {
	case MetricHoney:
		return "Мёд на руках"
	case MetricTotalHoney:
		return "Мёд за всё время"
	case MetricUniqueHivees:
		return "Уникальные призы"
	case MetricTotalHivees:
		return "Всего призов"
	default:
		return string(m)
	}
}

// Value возвращает значение метрики для профиля.
func (m Metric) Value(p *profiles.Profile) int64 {
	switch m {
	case MetricHoney:
		return p.Honey
	case MetricTotalHoney:
		return p.Stats.TotalHoney
	case MetricUniqueHivees:
		return p.UniqueItems()
	case MetricTotalHivees:
		return p.TotalItems()
	default:
		return 0
	}
}

// Lister: источник профилей.
type Lister interface {
	List(ctx context.Context) ([]*profiles.Profile, error)
}

// Service строит топы.
type Service struct {
	profiles Lister
	limit    int
}

// NewService создаёт сервис топа.
func NewService(profiles Lister) *Service {
	return &Service{profiles: profiles, limit: DefaultLimit}
}

// Top возвращает лучших игроков по метрике, по убыванию значения.
// При равенстве выше стоит игрок с меньшим (по алфавиту) именем.
func (s *Service) Top(ctx context.Context, metric Metric) ([]Entry, error) {
	all, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей: %w", err)
	}

	entries := make([]Entry, 0, len(all))
	for _, p := range all {
		avatar := p.FavImage
		if avatar == "" {
			avatar = profiles.DefaultFavImage
		}
		entries = append(entries, Entry{
			UserID:   p.UserID,
			Username: p.Username,
			Avatar:   avatar,
			Value:    metric.Value(p),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		if entries[i].Username != entries[j].Username {
			return entries[i].Username < entries[j].Username
		}
		return entries[i].UserID < entries[j].UserID
	})

	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries, nil
}
