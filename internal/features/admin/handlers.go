// Package admin: handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: пароль → клавиатура → действие.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
)

// Кнопки клавиатуры
const (
	ButtonResetDay = "Сбросить день"
	ButtonStats    = "Статистика"
	ButtonLogout   = "Выйти"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	bot     common.Sender
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{
		service: service,
		bot:     bot,
	}
}

// isPanelCommand: слова, которые открывают панель.
func isPanelCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "админ", "панель", "admin", "login":
		return true
	}
	return false
}

// HandleAdminMessage обрабатывает сообщение от администратора в DM.
// Возвращает false, если сообщение не относится к панели и его нужно
// передать обычным командам (админы тоже играют).
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	state := h.service.GetState(userID)
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(chatID, userID, text)
		return true
	}

	if !h.service.HasActiveSession(userID) {
		if !isPanelCommand(text) {
			return false
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword)
		return true
	}

	switch strings.TrimSpace(text) {
	case ButtonResetDay:
		h.handleResetDay(ctx, chatID, userID)
		return true
	case ButtonStats:
		h.handleStats(ctx, chatID)
		return true
	case ButtonLogout:
		h.service.Logout(userID)
		msg := tgbotapi.NewMessage(chatID, "👋 Сессия закрыта")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		h.send(msg)
		return true
	}

	if isPanelCommand(text) {
		h.showKeyboard(chatID)
		return true
	}
	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(chatID int64, userID int64, password string) {
	h.service.ClearState(userID)

	if _, err := h.service.VerifyPassword(userID, strings.TrimSpace(password)); err != nil {
		h.sendMessage(chatID, fmt.Sprintf("❌ %s", err.Error()))
		return
	}

	h.sendMessage(chatID, "✅ Аутентификация успешна!")
	h.showKeyboard(chatID)
}

func (h *Handler) handleResetDay(ctx context.Context, chatID int64, userID int64) {
	n, err := h.service.ResetDay(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotAdmin) {
			h.sendMessage(chatID, "❌ Сессия истекла, войдите снова")
			return
		}
		log.WithError(err).Error("Ошибка ручного сброса")
		h.sendMessage(chatID, "❌ Не удалось сбросить день")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🌅 День сброшен: обнулено %s", common.FormatPlayers(int64(n))))
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	st, err := h.service.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка сбора статистики")
		h.sendMessage(chatID, "❌ Не удалось собрать статистику")
		return
	}

	loc := h.service.honey.Zone().Location()
	var sb strings.Builder
	sb.WriteString("📊 Статистика\n\n")
	sb.WriteString(fmt.Sprintf("Игроков: %s\n", common.FormatNumber(int64(st.Players))))
	sb.WriteString(fmt.Sprintf("Пояс: %s\n", st.Zone))
	sb.WriteString(fmt.Sprintf("Игровой день: %s\n", st.Today))
	sb.WriteString(fmt.Sprintf("Следующий сброс: %s\n", common.FormatDateTime(st.NextReset, loc)))
	sb.WriteString(fmt.Sprintf("Активных сессий: %d", st.Sessions))
	h.sendMessage(chatID, sb.String())
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonResetDay),
			tgbotapi.NewKeyboardButton(ButtonStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonLogout),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "✅ Админ-панель открыта")
	msg.ReplyMarkup = keyboard
	h.send(msg)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	common.SendText(h.bot, chatID, text)
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения админу")
	}
}
