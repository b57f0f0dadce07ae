package admin

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/profiles"
)

const (
	adminID  int64 = 100
	playerID int64 = 200
	password       = "correct horse battery staple"
)

// fakeSender запоминает отправленные сообщения.
type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	store *profiles.FileStore
	zone  *clock.Zone
	now   time.Time
	svc   *Service
}

var (
	hashOnce sync.Once
	hashed   string
)

func testHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := HashPassword(password)
		require.NoError(t, err)
		hashed = h
	})
	return hashed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := profiles.OpenFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	zone, err := clock.LoadZone("Europe/Madrid")
	require.NoError(t, err)

	f := &fixture{
		store: store,
		zone:  zone,
		now:   time.Date(2026, 3, 14, 10, 0, 0, 0, zone.Location()),
	}
	clk := clock.Func(func() time.Time { return f.now })
	honeySvc := honey.NewService(store, zone, clk, nil)
	profileSvc := profiles.NewService(store, zone, clk, func() profiles.Question {
		return profiles.Question{Type: "sum", N1: 1, N2: 2}
	})

	f.svc = NewService(Options{
		AdminIDs:     []int64{adminID},
		PasswordHash: testHash(t),
		SessionTTL:   time.Hour,
		MaxFailures:  3,
		Lockout:      time.Hour,
	}, honeySvc, profileSvc, clk, nil)
	return f
}

func TestHashPassword_Verifies(t *testing.T) {
	h := testHash(t)
	assert.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=65536,t=3,p=2$"))
	assert.True(t, verifyArgon2id(password, h))
	assert.False(t, verifyArgon2id("wrong", h))
	assert.False(t, verifyArgon2id(password, "not-a-hash"))
}

func TestVerifyPassword_NotAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyPassword(playerID, password)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
}

func TestVerifyPassword_OpensSession(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.VerifyPassword(adminID, password)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, f.svc.HasActiveSession(adminID))

	f.now = f.now.Add(2 * time.Hour)
	assert.False(t, f.svc.HasActiveSession(adminID), "session must expire after TTL")
}

func TestVerifyPassword_LockoutAfterThreeFailures(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.VerifyPassword(adminID, "nope")
		require.ErrorIs(t, err, common.ErrWrongPassword)
	}

	_, err := f.svc.VerifyPassword(adminID, password)
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)
	assert.False(t, f.svc.HasActiveSession(adminID))
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyPassword(adminID, password)
	require.NoError(t, err)
	f.svc.SetState(adminID, StateAwaitingPassword)

	assert.Equal(t, 0, f.svc.PurgeExpired())

	f.now = f.now.Add(2 * time.Hour)
	assert.Equal(t, 2, f.svc.PurgeExpired())
	assert.Nil(t, f.svc.GetState(adminID))
}

func TestResetDay_RequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResetDay(ctx, adminID)
	assert.ErrorIs(t, err, common.ErrNotAdmin)

	require.NoError(t, f.store.Create(ctx, &profiles.Profile{
		UserID:         playerID,
		Username:       "bee",
		Collection:     map[string]int{},
		Honey:          300,
		TodayHoney:     300,
		LastDailyReset: f.zone.Today(f.now),
		Stats:          profiles.Stats{TotalHoney: 300},
	}))

	_, err = f.svc.VerifyPassword(adminID, password)
	require.NoError(t, err)

	n, err := f.svc.ResetDay(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := f.store.GetDailyState(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TodayHoney)
	assert.Equal(t, int64(300), st.Honey)
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Players)
	assert.Equal(t, "Europe/Madrid", st.Zone)
	assert.Equal(t, clock.Date{Year: 2026, Month: time.March, Day: 14}, st.Today)
	assert.True(t, st.NextReset.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, f.zone.Location())))
}

func TestHandler_LoginFlow(t *testing.T) {
	f := newFixture(t)
	sender := &fakeSender{}
	h := NewHandler(f.svc, sender)
	ctx := context.Background()

	// Обычные сообщения админа без сессии идут в игровые команды.
	assert.False(t, h.HandleAdminMessage(ctx, 1, adminID, "вопрос"))
	assert.False(t, h.HandleAdminMessage(ctx, 1, playerID, "админ"))

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, "админ"))
	assert.Contains(t, sender.last().Text, "пароль")

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, password))
	assert.Equal(t, "✅ Админ-панель открыта", sender.last().Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, sender.last().ReplyMarkup)

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, ButtonStats))
	assert.Contains(t, sender.last().Text, "Europe/Madrid")

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, ButtonResetDay))
	assert.Contains(t, sender.last().Text, "День сброшен")

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, ButtonLogout))
	assert.False(t, f.svc.HasActiveSession(adminID))
}

func TestHandler_WrongPassword(t *testing.T) {
	f := newFixture(t)
	sender := &fakeSender{}
	h := NewHandler(f.svc, sender)
	ctx := context.Background()

	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, "панель"))
	require.True(t, h.HandleAdminMessage(ctx, 1, adminID, "guess"))
	assert.Equal(t, "❌ неверный пароль", sender.last().Text)
	assert.Nil(t, f.svc.GetState(adminID))
}
