// Package admin: service.go содержит аутентификацию, сессии в памяти
// и состояния диалога админ-панели.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/bot/middleware"
	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// stateTTL: сколько живёт состояние «ждём пароль».
const stateTTL = 5 * time.Minute

// Options: настройки админ-панели из конфигурации.
type Options struct {
	AdminIDs     []int64
	PasswordHash string
	SessionTTL   time.Duration
	MaxFailures  int
	Lockout      time.Duration
}

// Service управляет админ-панелью.
type Service struct {
	opts     Options
	admins   map[int64]struct{}
	honey    *honey.Service
	profiles *profiles.Service
	clock    clock.Clock
	failures *middleware.FailureTracker

	// nextReset сообщает момент следующего дневного сброса (от планировщика).
	nextReset func() time.Time

	mu       sync.RWMutex
	sessions map[int64]*Session
	states   map[int64]*AdminState
}

// NewService создаёт сервис админ-панели.
func NewService(opts Options, honeySvc *honey.Service, profileSvc *profiles.Service, clk clock.Clock, nextReset func() time.Time) *Service {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 3
	}
	if opts.Lockout <= 0 {
		opts.Lockout = time.Hour
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}

	return &Service{
		opts:      opts,
		admins:    admins,
		honey:     honeySvc,
		profiles:  profileSvc,
		clock:     clk,
		failures:  middleware.NewFailureTracker(0, 0, opts.Lockout, 1000),
		nextReset: nextReset,
		sessions:  make(map[int64]*Session),
		states:    make(map[int64]*AdminState),
	}
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (s *Service) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// VerifyPassword проверяет пароль и открывает сессию.
// Защита от перебора: MaxFailures неудачных попыток = блокировка на Lockout.
func (s *Service) VerifyPassword(userID int64, password string) (*Session, error) {
	if !s.IsAdmin(userID) {
		return nil, common.ErrNotAdmin
	}

	key := strconv.FormatInt(userID, 10)
	if s.failures.Failures(key) >= s.opts.MaxFailures {
		log.WithField("user_id", userID).Warn("Вход в админку заблокирован")
		return nil, common.ErrTooManyAttempts
	}

	if s.opts.PasswordHash == "" || !verifyArgon2id(password, s.opts.PasswordHash) {
		n := s.failures.Fail(key)
		log.WithFields(log.Fields{"user_id": userID, "attempts": n}).Warn("Неверный пароль админки")
		return nil, common.ErrWrongPassword
	}
	s.failures.Reset(key)

	now := s.clock.Now()
	session := &Session{
		UserID:          userID,
		Token:           uuid.NewString(),
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(s.opts.SessionTTL),
		LastActivity:    now,
	}

	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()

	log.WithField("user_id", userID).Info("Админ вошёл в панель")
	return session, nil
}

// HasActiveSession проверяет активную сессию и отмечает активность.
func (s *Service) HasActiveSession(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return false
	}
	now := s.clock.Now()
	if !now.Before(session.ExpiresAt) {
		delete(s.sessions, userID)
		return false
	}
	session.LastActivity = now
	return true
}

// Logout закрывает сессию.
func (s *Service) Logout(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	delete(s.states, userID)
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.clock.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = &AdminState{
		State:     stateName,
		ExpiresAt: s.clock.Now().Add(stateTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// PurgeExpired удаляет истёкшие сессии, состояния и счётчики неудач.
func (s *Service) PurgeExpired() int {
	now := s.clock.Now()
	removed := 0

	s.mu.Lock()
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	for id, state := range s.states {
		if now.After(state.ExpiresAt) {
			delete(s.states, id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed + s.failures.Purge()
}

// ResetDay вручную запускает дневной сброс за сегодняшнюю дату.
func (s *Service) ResetDay(ctx context.Context, userID int64) (int, error) {
	if !s.HasActiveSession(userID) {
		return 0, common.ErrNotAdmin
	}
	today := s.honey.Today()
	n, err := s.honey.DailyReset(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("ручной сброс: %w", err)
	}
	log.WithFields(log.Fields{"user_id": userID, "day": today.String(), "profiles": n}).Info("Ручной дневной сброс")
	return n, nil
}

// Stats собирает сводку для панели.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	players, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	sessions := len(s.sessions)
	s.mu.RUnlock()

	st := &Stats{
		Players:  players,
		Zone:     s.honey.Zone().Name(),
		Today:    s.honey.Today(),
		Sessions: sessions,
	}
	if s.nextReset != nil {
		st.NextReset = s.nextReset()
	} else {
		st.NextReset = s.honey.Zone().NextMidnight(s.clock.Now())
	}
	return st, nil
}
