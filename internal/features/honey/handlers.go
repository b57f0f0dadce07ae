// handlers.go: команда бота «мед».
package honey

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
)

// Handler показывает игроку его мёд.
type Handler struct {
	service *Service
	bot     common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleHoney отвечает балансом и потолком следующей награды.
func (h *Handler) HandleHoney(ctx context.Context, chatID, userID int64) {
	st, err := h.service.State(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения мёда")
		common.SendText(h.bot, chatID, "❌ Не удалось получить баланс")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍯 На руках: %s\n", common.FormatHoney(st.Honey)))
	sb.WriteString(fmt.Sprintf("Сегодня: %s\n", common.FormatHoney(st.TodayHoney)))
	sb.WriteString(fmt.Sprintf("За всё время: %s\n", common.FormatHoney(st.TotalHoney)))
	if st.TodayHoney <= 0 {
		sb.WriteString("\n🎡 Первый верный ответ дня крутит колесо (до 1 000 🍯)")
	} else {
		sb.WriteString(fmt.Sprintf("\nСледующий верный ответ: до %s", common.FormatHoney(MaxReward(st.TodayHoney))))
	}
	common.SendText(h.bot, chatID, sb.String())
}
