// Package wallet — имитация пополнения и вывода средств.
// Реальных платежей нет: проверяются только правила, результат — запись в журнал.
package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
)

// Method — способ вывода.
type Method int

const (
	UPI Method = iota
	Bank
)

func (m Method) String() string {
	if m == Bank {
		return "Bank"
	}
	return "UPI"
}

// ParseMethod разбирает "upi" / "bank" (регистр не важен).
func ParseMethod(s string) (Method, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upi":
		return UPI, true
	case "bank":
		return Bank, true
	}
	return UPI, false
}

// Rules — правила кошелька.
type Rules struct {
	MinAmount       int64
	ProcessingDelay time.Duration
}

// ParseAmount разбирает сумму из пользовательского ввода.
// Не число → ErrInvalidAmount.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), common.CurrencySymbol))
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", raw, common.ErrInvalidAmount)
	}
	return n, nil
}

// Deposit проверяет пополнение и возвращает запись для журнала.
func (r Rules) Deposit(amount int64, upiID string) (ledger.Entry, error) {
	if err := r.checkAmount(amount); err != nil {
		return ledger.Entry{}, err
	}
	upiID = strings.TrimSpace(upiID)
	if upiID == "" {
		return ledger.Entry{}, common.ErrMissingPaymentDetails
	}
	return ledger.Entry{
		Amount:      amount,
		Description: fmt.Sprintf("Wallet Deposit (UPI: %s)", upiID),
		Kind:        ledger.Credit,
	}, nil
}

// Withdraw проверяет вывод до обращения к журналу: сумма не больше баланса.
func (r Rules) Withdraw(amount, balance int64, method Method, details string) (ledger.Entry, error) {
	if err := r.checkAmount(amount); err != nil {
		return ledger.Entry{}, err
	}
	details = strings.TrimSpace(details)
	if details == "" {
		return ledger.Entry{}, common.ErrMissingPaymentDetails
	}
	if amount > balance {
		return ledger.Entry{}, fmt.Errorf("withdraw %d with balance %d: %w", amount, balance, common.ErrInsufficientBalance)
	}
	return ledger.Entry{
		Amount:      amount,
		Description: fmt.Sprintf("Withdrawal to %s (%s)", method, details),
		Kind:        ledger.Debit,
	}, nil
}

// Process имитирует обработку платежа фиксированной задержкой.
func (r Rules) Process(ctx context.Context) error {
	if r.ProcessingDelay <= 0 {
		return nil
	}
	t := time.NewTimer(r.ProcessingDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r Rules) checkAmount(amount int64) error {
	if amount < r.MinAmount {
		return fmt.Errorf("minimum amount is %s: %w", common.FormatMoney(r.MinAmount), common.ErrInvalidAmount)
	}
	return nil
}
