// service.go: бизнес-логика профилей: регистрация игрока и чтение данных.
package profiles

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
)

// Service управляет профилями игроков.
type Service struct {
	store       Store
	zone        *clock.Zone
	clock       clock.Clock
	newQuestion func() Question
}

// NewService создаёт сервис профилей.
// newQuestion выдаёт первый вопрос новому игроку.
func NewService(store Store, zone *clock.Zone, clk clock.Clock, newQuestion func() Question) *Service {
	return &Service{store: store, zone: zone, clock: clk, newQuestion: newQuestion}
}

// EnsureProfile возвращает профиль игрока, создавая его при первом обращении.
// Если имя пользователя в Telegram изменилось, обновляет его.
func (s *Service) EnsureProfile(ctx context.Context, userID int64, username string) (*Profile, bool, error) {
	p, err := s.store.Get(ctx, userID)
	switch {
	case err == nil:
		if username != "" && p.Username != username {
			p, err = s.store.Update(ctx, userID, func(p *Profile) error {
				p.Username = username
				return nil
			})
			if err != nil {
				return nil, false, fmt.Errorf("ошибка обновления имени: %w", err)
			}
		}
		return p, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, err
	}

	now := s.clock.Now()
	p = &Profile{
		UserID:           userID,
		Username:         username,
		AccountCreatedAt: now.UTC(),
		Collection:       make(map[string]int),
		LastDailyReset:   s.zone.Today(now),
		FavImage:         DefaultFavImage,
		Question:         s.newQuestion(),
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			// Профиль успел создать параллельный запрос.
			existing, err := s.store.Get(ctx, userID)
			return existing, false, err
		}
		return nil, false, fmt.Errorf("ошибка создания профиля: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "username": username}).Info("Новый игрок зарегистрирован")
	return p, true, nil
}

// Get возвращает профиль игрока.
func (s *Service) Get(ctx context.Context, userID int64) (*Profile, error) {
	return s.store.Get(ctx, userID)
}

// List возвращает все профили.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	return s.store.List(ctx)
}

// Count возвращает число игроков.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// SetFavImage меняет аватар игрока. Пустой путь возвращает аватар по умолчанию.
func (s *Service) SetFavImage(ctx context.Context, userID int64, image string) (*Profile, error) {
	if image == "" {
		image = DefaultFavImage
	}
	return s.store.Update(ctx, userID, func(p *Profile) error {
		p.FavImage = image
		return nil
	})
}
