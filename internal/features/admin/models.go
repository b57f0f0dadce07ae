// Package admin реализует админ-панель в личке бота с парольной аутентификацией.
// models.go описывает сессии, состояния диалога и сводку.
package admin

import (
	"time"

	"hivefest.ru/honey-server/internal/clock"
)

// Session: активная сессия администратора (в памяти процесса).
type Session struct {
	UserID          int64
	Token           string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
}

// AdminState: состояние диалога с админом.
type AdminState struct {
	State     string    // "" или "awaiting_password"
	ExpiresAt time.Time // Когда состояние истекает (5 минут)
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                  // Нет активного состояния
	StateAwaitingPassword = "awaiting_password" // Ждём пароль
)

// Stats: сводка для кнопки «Статистика».
type Stats struct {
	Players   int
	Zone      string
	Today     clock.Date
	NextReset time.Time
	Sessions  int
}
