// Package audit пишет журнал событий сессий в PostgreSQL:
// входы, транзакции и вращения колеса.
// Журнал только для записи. Состояние сессии из него не восстанавливается.
package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
)

// DB — часть pgxpool.Pool, которая нужна журналу.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository реализует session.Journal поверх PostgreSQL.
type Repository struct {
	db DB
}

var _ session.Journal = (*Repository)(nil)

// NewRepository создаёт журнал. Обычно db это *pgxpool.Pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// RecordLogin создаёт или обновляет запись о пользователе.
// Повторный вход увеличивает login_count.
func (r *Repository) RecordLogin(ctx context.Context, userID int64, id session.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identities (user_id, phone_number, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			display_name = EXCLUDED.display_name,
			login_count = identities.login_count + 1,
			last_login_at = NOW()
	`, userID, id.PhoneNumber, id.DisplayName)
	if err != nil {
		return fmt.Errorf("ошибка записи входа: %w", err)
	}
	return nil
}

// RecordTransaction копирует транзакцию в ledger_journal.
// Повторная запись той же транзакции игнорируется.
func (r *Repository) RecordTransaction(ctx context.Context, userID int64, tx ledger.Transaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_journal (id, user_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, tx.ID, userID, tx.Amount, tx.Kind.String(), tx.Description, tx.Timestamp)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции %s: %w", tx.ID, err)
	}
	return nil
}

// RecordSpin записывает результат вращения колеса.
func (r *Repository) RecordSpin(ctx context.Context, userID int64, o wheel.Outcome) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO spin_log (user_id, segment_index, label, reward_kind, quantity, rotation)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, o.Index, o.Segment.Label, o.Segment.Kind.String(), o.Segment.Quantity, o.Rotation)
	if err != nil {
		return fmt.Errorf("ошибка записи вращения: %w", err)
	}
	return nil
}
