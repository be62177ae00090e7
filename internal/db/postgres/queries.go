// Package postgres — queries.go содержит встроенные миграции
// и их применение в транзакции.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration — одна SQL-миграция. Версия берётся из префикса имени файла
// (001_identities.sql → 1).
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// LoadMigrations читает встроенные миграции, отсортированные по версии.
func LoadMigrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения миграций: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, err := parseVersion(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("миграции %s и %s имеют одну версию %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		data, err := migrationFS.ReadFile(path.Join("migrations", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    e.Name(),
			SQL:     string(data),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("имя миграции без номера: %s", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("некорректный номер миграции: %s", name)
	}
	return v, nil
}

// ExecMigrationSQL выполняет одну миграцию в транзакции.
// Если запрос упадёт, транзакция откатится автоматически.
// Возвращает true, если миграция была применена сейчас.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации миграции %d: %w", version, err)
	}
	return true, nil
}
