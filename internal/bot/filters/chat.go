// Package filters решает, в каких чатах бот отвечает.
package filters

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// ChatAPI: методы Telegram API, нужные фильтру.
type ChatAPI interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ProfileGetter ищет профиль игрока.
type ProfileGetter interface {
	Get(ctx context.Context, userID int64) (*profiles.Profile, error)
}

// ChatFilter пропускает личку и, если задан, чат улья.
// При заданном чате улья личка открыта только его участникам.
type ChatFilter struct {
	hiveChatID int64
	profiles   ProfileGetter
	api        ChatAPI
}

// NewChatFilter создаёт фильтр. hiveChatID == 0 открывает личку всем.
func NewChatFilter(hiveChatID int64, profiles ProfileGetter, api ChatAPI) *ChatFilter {
	return &ChatFilter{
		hiveChatID: hiveChatID,
		profiles:   profiles,
		api:        api,
	}
}

// CheckAccess сообщает, нужно ли обрабатывать сообщение.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil || message.From.IsBot {
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":    "ChatFilter",
		"chat_id":      chatID,
		"chat_type":    message.Chat.Type,
		"user_id":      userID,
		"hive_chat_id": f.hiveChatID,
	})

	// 1) Чат улья
	if f.hiveChatID != 0 && chatID == f.hiveChatID {
		return true
	}

	// 2) Остальные группы игнорируем
	if !message.Chat.IsPrivate() {
		logger.Debug("deny: not hive chat and not private")
		return false
	}

	// 3) Личка
	if f.hiveChatID == 0 {
		return true
	}

	// 3.1) Уже играет: пускаем без запроса к Telegram
	if _, err := f.profiles.Get(ctx, userID); err == nil {
		return true
	} else if !errors.Is(err, common.ErrNotFound) {
		logger.WithError(err).Error("profile check failed")
		return false
	}

	// 3.2) Новичок: проверяем членство в чате улья
	cm, err := f.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.hiveChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		logger.WithField("tg_status", cm.Status).Info("allow: private (hive member)")
		return true
	default:
		logger.WithField("tg_status", cm.Status).Info("deny: private (not a hive member)")
		common.SendText(f.api, chatID, "❌ Бот работает только для участников улья")
		return false
	}
}
