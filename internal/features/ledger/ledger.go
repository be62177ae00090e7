// Package ledger — ledger.go содержит сам журнал: баланс + история.
// Единственный способ изменить баланс — RecordTransaction.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/superfast-bot/internal/common"
)

// Ledger хранит баланс и историю транзакций одной сессии.
// Инвариант: balance == сумма начислений - сумма списаний, balance >= 0.
type Ledger struct {
	mu      sync.RWMutex
	balance int64
	history []Transaction // в порядке записи, новые в конце
	now     func() time.Time
}

// New создаёт пустой журнал с нулевым балансом.
func New() *Ledger {
	return &Ledger{now: time.Now}
}

// RecordTransaction добавляет транзакцию и меняет баланс.
// Сумма должна быть положительной. Списание больше баланса отклоняется
// с ErrInsufficientBalance, и ничего не записывается.
func (l *Ledger) RecordTransaction(amount int64, description string, kind Kind) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, common.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if kind == Debit && amount > l.balance {
		return Transaction{}, fmt.Errorf("debit %d of %d: %w", amount, l.balance, common.ErrInsufficientBalance)
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Description: description,
		Timestamp:   l.now(),
		Kind:        kind,
	}
	l.history = append(l.history, tx)
	l.balance += tx.Signed()
	return tx, nil
}

// Balance возвращает текущий баланс.
func (l *Ledger) Balance() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Len — сколько транзакций записано.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.history)
}

// History возвращает копию истории, новые транзакции первыми.
func (l *Ledger) History() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transaction, len(l.history))
	for i, tx := range l.history {
		out[len(l.history)-1-i] = tx
	}
	return out
}

// SumCredits считает сумму начислений с указанным описанием.
// Используется профилем для "Total Winnings".
func (l *Ledger) SumCredits(description string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, tx := range l.history {
		if tx.Kind == Credit && tx.Description == description {
			total += tx.Amount
		}
	}
	return total
}

// FormatHistory возвращает ленту транзакций для отображения.
// Не больше limit строк, новые первыми.
func FormatHistory(history []Transaction, limit int) string {
	if len(history) == 0 {
		return "📋 No transactions yet"
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Last %d transactions:\n\n", len(history)))
	for i, tx := range history {
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.Timestamp),
			common.FormatSignedMoney(tx.Amount, tx.Kind == Credit),
			tx.Description,
		))
	}
	return sb.String()
}
