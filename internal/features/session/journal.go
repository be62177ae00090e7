// Package session — journal.go: внешний журнал аудита.
// Запись в журнал — best effort: ошибка логируется и не влияет на сессию.
package session

import (
	"context"

	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
)

// Identity — подтверждённая личность. Не меняется в течение сессии.
type Identity struct {
	PhoneNumber string
	DisplayName string
}

// Journal получает копии событий сессии. Состояние сессии из него не восстанавливается.
type Journal interface {
	RecordLogin(ctx context.Context, userID int64, id Identity) error
	RecordTransaction(ctx context.Context, userID int64, tx ledger.Transaction) error
	RecordSpin(ctx context.Context, userID int64, o wheel.Outcome) error
}

// NopJournal — журнал, который ничего не пишет (AUDIT_ENABLED=false, тесты).
type NopJournal struct{}

func (NopJournal) RecordLogin(context.Context, int64, Identity) error { return nil }

func (NopJournal) RecordTransaction(context.Context, int64, ledger.Transaction) error { return nil }

func (NopJournal) RecordSpin(context.Context, int64, wheel.Outcome) error { return nil }
