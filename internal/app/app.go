// Package app инициализирует все компоненты приложения.
// app.go: точка сборки: хранилище, сервисы, планировщик, HTTP API
// и (если задан токен) Telegram-бот.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/bot"
	"hivefest.ru/honey-server/internal/bot/filters"
	"hivefest.ru/honey-server/internal/bot/middleware"
	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/config"
	"hivefest.ru/honey-server/internal/db/postgres"
	"hivefest.ru/honey-server/internal/features/admin"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/leaderboard"
	"hivefest.ru/honey-server/internal/features/profiles"
	"hivefest.ru/honey-server/internal/features/questions"
	"hivefest.ru/honey-server/internal/httpapi"
	"hivefest.ru/honey-server/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Zone      *clock.Zone
	Store     profiles.Store
	Scheduler *jobs.Scheduler
	Server    *httpapi.Server
	Bot       *bot.Bot // nil, если бот отключён
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Опорный часовой пояс ===
	zone, err := clock.LoadZone(cfg.AppTimezone)
	if err != nil {
		return nil, err
	}
	clk := clock.System{}

	// === 2. Хранилище профилей ===
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 3. Сервисы ===
	gen := questions.NewGenerator(nil)
	honeyService := honey.NewService(store, zone, clk, nil)
	profileService := profiles.NewService(store, zone, clk, gen.Next)
	questionService := questions.NewService(store, honeyService, gen)
	leaderboardService := leaderboard.NewService(profileService)

	// === 4. Общие ограничители ===
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	failures := middleware.NewFailureTracker(cfg.LoginFailStep, cfg.LoginFailMaxDelay, cfg.LoginFailWindow, cfg.LoginFailMaxEntries)
	tokens := httpapi.NewTokenIssuer(cfg.WebTokenSecret, cfg.WebTokenTTL)

	// === 5. Планировщик: дневной сброс + обслуживание ===
	daily := jobs.NewDailyReset(honeyService, zone, clk)
	scheduler := jobs.NewScheduler(zone, daily)

	adminService := admin.NewService(admin.Options{
		AdminIDs:     cfg.AdminIDs,
		PasswordHash: cfg.AdminPasswordHash,
		SessionTTL:   cfg.AdminSessionTTL,
		MaxFailures:  cfg.AdminMaxFailures,
		Lockout:      cfg.AdminLockout,
	}, honeyService, profileService, clk, scheduler.NextReset)

	maintenance := func() {
		log.WithFields(log.Fields{
			"rate_limit_keys": limiter.Cleanup(),
			"failure_keys":    failures.Purge(),
			"admin_entries":   adminService.PurgeExpired(),
		}).Debug("Обслуживание: устаревшие записи удалены")
	}
	if err := scheduler.AddMaintenance("cleanup", cfg.MaintenanceSchedule, maintenance); err != nil {
		store.Close()
		return nil, err
	}

	// === 6. HTTP API ===
	router := httpapi.NewRouter(httpapi.Deps{
		Profiles:        profileService,
		Honey:           honeyService,
		Questions:       questionService,
		Leaderboard:     leaderboardService,
		Tokens:          tokens,
		Limiter:         limiter,
		RateLimitWindow: cfg.RateLimitWindow,
		Failures:        failures,
	})
	server := httpapi.NewServer(cfg.HTTPAddr, router)

	a := &App{
		Zone:      zone,
		Store:     store,
		Scheduler: scheduler,
		Server:    server,
	}

	// === 7. Telegram Bot API (опционально) ===
	if !cfg.BotEnabled() {
		log.Warn("TELEGRAM_BOT_TOKEN не задан — бот отключён, работает только HTTP API")
		return a, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	handlers := bot.Handlers{
		Profiles:    profiles.NewHandler(profileService, tokens, botAPI),
		Honey:       honey.NewHandler(honeyService, botAPI),
		Questions:   questions.NewHandler(questionService, botAPI),
		Leaderboard: leaderboard.NewHandler(leaderboardService, botAPI),
		Admin:       admin.NewHandler(adminService, botAPI),
	}
	chatFilter := filters.NewChatFilter(cfg.HiveChatID, profileService, botAPI)

	a.Bot = bot.New(botAPI, botAPI, cfg, profileService, handlers, chatFilter, limiter)
	return a, nil
}

// Close освобождает хранилище.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия хранилища")
	}
}

// openStore открывает хранилище профилей по STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (profiles.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return profiles.NewRepository(pool), nil

	default:
		store, err := profiles.OpenFileStore(cfg.StoreFilePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.StoreFilePath).Info("Профили хранятся в файле")
		return store, nil
	}
}
