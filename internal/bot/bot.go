// Package bot реализует Telegram-фронтенд игры: long polling, фильтр чатов,
// rate limiting и маршрутизация команд к обработчикам фич.
package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/bot/filters"
	"hivefest.ru/honey-server/internal/bot/middleware"
	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/config"
	"hivefest.ru/honey-server/internal/features/admin"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/leaderboard"
	"hivefest.ru/honey-server/internal/features/profiles"
	"hivefest.ru/honey-server/internal/features/questions"
)

const helpText = `🐝 HiveFest: отвечай на вопросы и собирай мёд!

!вопрос — текущий вопрос
!ответ <число> — ответить (в личке можно просто число)
!сменить — другой вопрос
!мед — баланс и следующая награда
!профиль — твой профиль
!топ [honey|totalhoney|uniquehivees|totalhivees] — лидеры
!web — токен для веб-клиента (в личке)

Первый верный ответ дня крутит колесо до 1 000 🍯. Сутки сбрасываются в полночь.`

// UpdateSource: источник апдейтов (*tgbotapi.BotAPI в проде).
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handlers: обработчики фич, к которым бот маршрутизирует команды.
type Handlers struct {
	Profiles    *profiles.Handler
	Honey       *honey.Handler
	Questions   *questions.Handler
	Leaderboard *leaderboard.Handler
	Admin       *admin.Handler
}

// Bot: главная структура бота, объединяющая все компоненты.
type Bot struct {
	updates UpdateSource
	sender  common.Sender
	cfg     *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	profileService *profiles.Service
	handlers       Handlers

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	updates UpdateSource,
	sender common.Sender,
	cfg *config.Config,
	profileService *profiles.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
	rateLimiter *middleware.RateLimiter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		updates:        updates,
		sender:         sender,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    rateLimiter,
		profileService: profileService,
		handlers:       handlers,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Блокирует до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.updates.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.updates.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic("bot")

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	if !b.rateLimiter.Allow("tg:" + strconv.FormatInt(message.From.ID, 10)) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	private := message.Chat.IsPrivate()

	if _, created, err := b.profileService.EnsureProfile(ctx, userID, displayName(message.From)); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("EnsureProfile failed")
		common.SendText(b.sender, chatID, "❌ Хранилище недоступно, попробуйте позже")
		return
	} else if created && private {
		common.SendText(b.sender, chatID, helpText)
	}

	// В DM сначала админ-панель
	if private && b.handlers.Admin != nil {
		if b.handlers.Admin.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      args,
	}).Debug("parsed command")

	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
		return
	}

	// В личке голое число: это ответ на вопрос
	if private {
		if _, err := questions.ParseAnswer(message.Text); err == nil {
			b.handlers.Questions.HandleAnswer(ctx, chatID, userID, []string{message.Text})
		}
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "start", "help", "помощь":
		common.SendText(b.sender, chatID, helpText)

	case "вопрос", "question":
		b.handlers.Questions.HandleQuestion(ctx, chatID, userID)

	case "ответ", "answer":
		b.handlers.Questions.HandleAnswer(ctx, chatID, userID, args)

	case "сменить", "change":
		b.handlers.Questions.HandleChange(ctx, chatID, userID)

	case "мед", "мёд", "honey":
		b.handlers.Honey.HandleHoney(ctx, chatID, userID)

	case "профиль", "me":
		b.handlers.Profiles.HandleProfile(ctx, chatID, userID)

	case "топ", "top":
		b.handlers.Leaderboard.HandleTop(ctx, chatID, args)

	case "web", "веб":
		b.handlers.Profiles.HandleWeb(chatID, userID)

	default:
		log.WithField("cmd", cmd).Debug("unknown command")
	}
}

// displayName: имя игрока в топе: username, иначе имя и фамилия.
func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "id" + strconv.FormatInt(u.ID, 10)
	}
	return name
}

// CommandParser парсит команды с префиксами !, . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @имя_бота у команды отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
