// handlers.go: команды бота: вопрос, смена вопроса, ответ.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
)

// Handler обрабатывает команды вопросов.
type Handler struct {
	service *Service
	bot     common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// ParseAnswer разбирает ответ игрока. Допускается знак и пробелы вокруг.
func ParseAnswer(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, common.ErrInvalidAnswer
	}
	return n, nil
}

// HandleQuestion показывает текущий вопрос.
func (h *Handler) HandleQuestion(ctx context.Context, chatID, userID int64) {
	q, err := h.service.Current(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения вопроса")
		common.SendText(h.bot, chatID, "❌ Не удалось получить вопрос")
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf("❓ Сколько будет %s?\nОтвет: !ответ <число>", Format(q)))
}

// HandleChange выдаёт новый вопрос.
func (h *Handler) HandleChange(ctx context.Context, chatID, userID int64) {
	q, err := h.service.Change(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка смены вопроса")
		common.SendText(h.bot, chatID, "❌ Не удалось сменить вопрос")
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf("🔄 Новый вопрос: %s = ?", Format(q)))
}

// HandleAnswer проверяет ответ из аргументов команды.
func (h *Handler) HandleAnswer(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		common.SendText(h.bot, chatID, "Использование: !ответ <число>")
		return
	}
	answer, err := ParseAnswer(args[0])
	if err != nil {
		common.SendText(h.bot, chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}

	res, err := h.service.Answer(ctx, userID, answer)
	if err != nil {
		if errors.Is(err, common.ErrNoQuestion) {
			q, _ := h.service.Current(ctx, userID)
			common.SendText(h.bot, chatID, fmt.Sprintf("🤔 %s: %s = ?", err.Error(), Format(q)))
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки ответа")
		common.SendText(h.bot, chatID, "❌ Не удалось проверить ответ")
		return
	}

	common.SendText(h.bot, chatID, FormatResult(res))
}

// FormatResult собирает текст ответа бота.
func FormatResult(res *AnswerResult) string {
	var sb strings.Builder
	if res.Correct {
		sb.WriteString(fmt.Sprintf("✅ Верно! %s = %d\n", Format(res.Question), res.Expected))
		if res.Reward != nil {
			sb.WriteString(fmt.Sprintf("Награда: %s", common.FormatHoneyDelta(res.Reward.Reward)))
			if res.Reward.FirstToday {
				sb.WriteString(" (колесо дня)")
			}
			sb.WriteString(fmt.Sprintf("\nНа руках: %s\n", common.FormatHoney(res.Reward.Honey)))
		}
	} else {
		sb.WriteString(fmt.Sprintf("❌ Неверно. %s = %d\n", Format(res.Question), res.Expected))
	}
	sb.WriteString(fmt.Sprintf("\nСледующий вопрос: %s = ?", Format(res.Next)))
	return sb.String()
}
