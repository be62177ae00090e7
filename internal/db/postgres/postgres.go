// Package postgres управляет подключением к PostgreSQL для журнала аудита.
// Используется пул соединений pgxpool: бот пишет в журнал из многих
// горутин одновременно, пул ограничивает число соединений и сам
// переподключается при обрыве.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/config"
)

// NewPool создаёт новый пул соединений к PostgreSQL и проверяет,
// что база доступна.
//
// Пример:
//
//	pool, err := postgres.NewPool(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
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

	log.WithFields(log.Fields{
		"host": cfg.DBHost,
		"db":   cfg.DBName,
	}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// RunMigrations создаёт таблицу schema_migrations и применяет
// встроенные миграции по порядку. Уже применённые версии пропускаются.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := LoadMigrations()
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("не удалось получить соединение: %w", err)
	}
	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	conn.Release()
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL)
		if err != nil {
			return fmt.Errorf("миграция %s: %w", m.Name, err)
		}
		if applied {
			log.WithField("migration", m.Name).Info("Миграция применена")
		}
	}

	log.WithField("count", len(migrations)).Info("Схема журнала актуальна")
	return nil
}
