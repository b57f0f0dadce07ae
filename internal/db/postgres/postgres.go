// Package postgres управляет подключением к PostgreSQL.
// Используется пул соединений pgxpool: переподключение при обрыве
// и ограничение числа соединений берёт на себя пул.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/config"
)

// NewPool создаёт пул соединений к PostgreSQL и проверяет, что база доступна.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithFields(log.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// Migrate создаёт таблицу schema_migrations и применяет все миграции по порядку.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := ExecMigrationSQL(ctx, pool, m.version, m.sql)
		if err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		if applied {
			log.Infof("Миграция %d применена", m.version)
		}
	}
	return nil
}
