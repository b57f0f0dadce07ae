package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivefest.ru/honey-server/internal/bot/filters"
	"hivefest.ru/honey-server/internal/bot/middleware"
	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/config"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/leaderboard"
	"hivefest.ru/honey-server/internal/features/profiles"
	"hivefest.ru/honey-server/internal/features/questions"
)

func TestCommandParser(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text      string
		cmd       string
		args      []string
		isCommand bool
	}{
		{"!вопрос", "вопрос", nil, true},
		{".ОТВЕТ 42", "ответ", []string{"42"}, true},
		{"/top@HiveFestBot totalhoney", "top", []string{"totalhoney"}, true},
		{"  !  мед  ", "мед", nil, true},
		{"42", "", nil, false},
		{"!", "", nil, false},
		{"привет", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := p.ParseCommand(tt.text)
		assert.Equal(t, tt.isCommand, ok, tt.text)
		assert.Equal(t, tt.cmd, cmd, tt.text)
		assert.Equal(t, tt.args, args, tt.text)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "bee", displayName(&tgbotapi.User{ID: 1, UserName: "bee", FirstName: "Maya"}))
	assert.Equal(t, "Maya Bee", displayName(&tgbotapi.User{ID: 1, FirstName: "Maya", LastName: "Bee"}))
	assert.Equal(t, "id7", displayName(&tgbotapi.User{ID: 7}))
}

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type botFixture struct {
	bot    *Bot
	sender *fakeSender
	store  *profiles.FileStore
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	store, err := profiles.OpenFileStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	zone, err := clock.LoadZone("Europe/Madrid")
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, zone.Location())
	clk := clock.Func(func() time.Time { return now })

	gen := questions.NewGenerator(nil)
	honeySvc := honey.NewService(store, zone, clk, nil)
	profileSvc := profiles.NewService(store, zone, clk, gen.Next)
	questionSvc := questions.NewService(store, honeySvc, gen)

	sender := &fakeSender{}
	cfg := &config.Config{BotMaxInflight: 4}

	b := New(nil, sender, cfg, profileSvc, Handlers{
		Profiles:    profiles.NewHandler(profileSvc, nil, sender),
		Honey:       honey.NewHandler(honeySvc, sender),
		Questions:   questions.NewHandler(questionSvc, sender),
		Leaderboard: leaderboard.NewHandler(leaderboard.NewService(profileSvc), sender),
	},
		filters.NewChatFilter(0, profileSvc, nil),
		middleware.NewRateLimiter(100, time.Minute),
	)
	return &botFixture{bot: b, sender: sender, store: store}
}

func privateUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "bee"},
		Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
		Text: text,
	}}
}

func TestHandleUpdate_NewPlayerGetsHelpAndQuestion(t *testing.T) {
	f := newBotFixture(t)
	f.bot.handleUpdate(context.Background(), privateUpdate(5, "!вопрос"))

	texts := f.sender.all()
	require.Len(t, texts, 2)
	assert.Equal(t, helpText, texts[0])
	assert.Contains(t, texts[1], "Сколько будет")

	_, err := f.store.Get(context.Background(), 5)
	require.NoError(t, err)
}

func TestHandleUpdate_BareNumberAnswersInPrivate(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, privateUpdate(5, "!мед"))
	_, err := f.store.Update(ctx, 5, func(p *profiles.Profile) error {
		p.Question = profiles.Question{Type: questions.TypeMultiplication, N1: 6, N2: 7}
		return nil
	})
	require.NoError(t, err)

	f.bot.handleUpdate(ctx, privateUpdate(5, "42"))

	texts := f.sender.all()
	assert.Contains(t, texts[len(texts)-1], "✅ Верно! 6 × 7 = 42")

	p, err := f.store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Stats.Played)
	assert.Greater(t, p.Stats.TotalHoney, int64(0))
}

func TestHandleUpdate_IgnoresForeignGroups(t *testing.T) {
	f := newBotFixture(t)
	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 5},
		Chat: &tgbotapi.Chat{ID: -100500, Type: "supergroup"},
		Text: "!вопрос",
	}})

	assert.Empty(t, f.sender.all())
	_, err := f.store.Get(context.Background(), 5)
	assert.Error(t, err)
}

func TestHandleUpdate_UnknownMetric(t *testing.T) {
	f := newBotFixture(t)
	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 5},
		Chat: &tgbotapi.Chat{ID: 5, Type: "private"},
		Text: "!топ nope",
	}})

	texts := f.sender.all()
	assert.Contains(t, texts[len(texts)-1], "Неизвестная метрика")
}
