// Package ledger ведёт баланс сессии и историю транзакций.
// models.go описывает транзакцию и её направление.
package ledger

import "time"

// Kind — направление транзакции.
type Kind int

const (
	Credit Kind = iota // Начисление (увеличивает баланс)
	Debit              // Списание (уменьшает баланс)
)

func (k Kind) String() string {
	if k == Debit {
		return "debit"
	}
	return "credit"
}

// Transaction представляет одну операцию с балансом.
// Создаётся ровно один раз на каждое изменение и больше не меняется.
type Transaction struct {
	ID          string    // UUID транзакции
	Amount      int64     // Сумма (всегда положительная)
	Description string    // Описание для ленты: "Game Win", "Spin Reward", ...
	Timestamp   time.Time // Время записи
	Kind        Kind
}

// Signed возвращает сумму со знаком: + для начисления, - для списания.
func (t Transaction) Signed() int64 {
	if t.Kind == Debit {
		return -t.Amount
	}
	return t.Amount
}

// Описания транзакций, которые используются в нескольких модулях.
const (
	DescWelcomeBonus = "Welcome Bonus"
	DescGameWin      = "Game Win"
	DescSpinReward   = "Spin Reward"
)

// Entry — запланированная транзакция: её готовят кошелёк и магазин,
// а записывает в журнал сессия.
type Entry struct {
	Amount      int64
	Description string
	Kind        Kind
}
