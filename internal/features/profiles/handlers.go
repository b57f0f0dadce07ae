// handlers.go: команды бота: профиль и веб-токен.
package profiles

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
)

// TokenIssuer выпускает подписанный веб-токен для игрока.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Handler обрабатывает команды профиля.
type Handler struct {
	service *Service
	tokens  TokenIssuer
	bot     common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, tokens TokenIssuer, bot common.Sender) *Handler {
	return &Handler{service: service, tokens: tokens, bot: bot}
}

// HandleProfile показывает профиль игрока.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	p, err := h.service.Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		common.SendText(h.bot, chatID, "❌ Профиль не найден")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🐝 %s\n\n", p.Username))
	sb.WriteString(fmt.Sprintf("Мёд: %s\n", common.FormatHoney(p.Honey)))
	sb.WriteString(fmt.Sprintf("За всё время: %s\n", common.FormatHoney(p.Stats.TotalHoney)))
	sb.WriteString(fmt.Sprintf("Верных ответов: %s\n", common.FormatNumber(p.Stats.Played)))
	sb.WriteString(fmt.Sprintf("Коллекция: %d уникальных, %d всего", p.UniqueItems(), p.TotalItems()))
	common.SendText(h.bot, chatID, sb.String())
}

// HandleWeb отправляет токен для веб-клиента. Только в личке.
func (h *Handler) HandleWeb(chatID, userID int64) {
	if chatID != userID {
		common.SendText(h.bot, chatID, "🔒 Токен выдаётся только в личных сообщениях")
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выпуска веб-токена")
		common.SendText(h.bot, chatID, "❌ Не удалось выпустить токен")
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf("🔑 Токен для веб-клиента (никому не показывайте):\n%s", token))
}
