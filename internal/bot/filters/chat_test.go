package filters

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/profiles"
)

const hiveChat int64 = -1001

type fakeAPI struct {
	status  string
	lookups int
	sent    int
}

func (f *fakeAPI) GetChatMember(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.lookups++
	return tgbotapi.ChatMember{Status: f.status}, nil
}

func (f *fakeAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent++
	return tgbotapi.Message{}, nil
}

type fakeProfiles map[int64]bool

func (f fakeProfiles) Get(_ context.Context, id int64) (*profiles.Profile, error) {
	if f[id] {
		return &profiles.Profile{UserID: id}, nil
	}
	return nil, common.ErrNotFound
}

func msg(chatID int64, chatType string, userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text: "!вопрос",
	}
}

func TestCheckAccess_NoHiveChat(t *testing.T) {
	f := NewChatFilter(0, fakeProfiles{}, nil)
	ctx := context.Background()

	assert.True(t, f.CheckAccess(ctx, msg(5, "private", 5)))
	assert.False(t, f.CheckAccess(ctx, msg(-42, "group", 5)))
	assert.False(t, f.CheckAccess(ctx, &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5, Type: "private"}}))
	assert.False(t, f.CheckAccess(ctx, nil))
}

func TestCheckAccess_HiveChat(t *testing.T) {
	ctx := context.Background()

	api := &fakeAPI{status: "left"}
	f := NewChatFilter(hiveChat, fakeProfiles{7: true}, api)

	assert.True(t, f.CheckAccess(ctx, msg(hiveChat, "supergroup", 5)))
	assert.True(t, f.CheckAccess(ctx, msg(7, "private", 7)), "known player skips telegram lookup")
	assert.Zero(t, api.lookups)

	assert.False(t, f.CheckAccess(ctx, msg(5, "private", 5)))
	assert.Equal(t, 1, api.lookups)
	assert.Equal(t, 1, api.sent, "stranger gets a deny message")

	api.status = "member"
	assert.True(t, f.CheckAccess(ctx, msg(5, "private", 5)))
}
