// Package main: точка входа сервера HiveFest.
// Загружает конфигурацию, собирает приложение и запускает HTTP API,
// планировщик дневного сброса и (если включён) Telegram-бота.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/app"
	"hivefest.ru/honey-server/internal/config"
)

func main() {
	setupLogging()
	log.Info("=== Сервер запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	application.Scheduler.Start(ctx)
	log.WithFields(log.Fields{
		"zone":       application.Zone.Name(),
		"next_reset": application.Scheduler.NextReset().Format("2006-01-02 15:04:05 MST"),
	}).Info("Дневной сброс запланирован")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := application.Server.Start(); err != nil {
			log.WithError(err).Error("HTTP API остановлен с ошибкой")
			cancel()
		}
	}()

	if application.Bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			application.Bot.Start(ctx)
		}()
	}

	log.Info("=== Сервер готов к работе ===")

	// Ждём сигнала остановки (Ctrl+C, docker stop) или падения HTTP
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infof("Получен сигнал %s, останавливаемся...", sig)
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer stop()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP API не успел завершиться")
	}

	application.Scheduler.Stop()
	wg.Wait()
	log.Info("=== Сервер остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
