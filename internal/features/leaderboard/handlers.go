// handlers.go: команда бота «топ».
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
)

// Handler выводит топ в чат.
type Handler struct {
	service *Service
	bot     common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleTop строит топ по метрике из аргументов (по умолчанию honey).
func (h *Handler) HandleTop(ctx context.Context, chatID int64, args []string) {
	metric := MetricHoney
	if len(args) > 0 {
		m, err := ParseMetric(args[0])
		if err != nil {
			common.SendText(h.bot, chatID, fmt.Sprintf("❌ Неизвестная метрика. Доступны: %s, %s, %s, %s",
				MetricHoney, MetricTotalHoney, MetricUniqueHivees, MetricTotalHivees))
			return
		}
		metric = m
	}

	entries, err := h.service.Top(ctx, metric)
	if err != nil {
		log.WithError(err).Error("Ошибка построения топа")
		common.SendText(h.bot, chatID, "❌ Не удалось построить топ")
		return
	}

	common.SendText(h.bot, chatID, FormatTop(metric, entries))
}

// FormatTop собирает текст топа.
func FormatTop(metric Metric, entries []Entry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 Топ: %s\n\n", metric.Title()))
	if len(entries) == 0 {
		sb.WriteString("Пока пусто")
		return sb.String()
	}
	for i, e := range entries {
		name := e.Username
		if name == "" {
			name = fmt.Sprintf("id%d", e.UserID)
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, name, common.FormatNumber(e.Value)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
