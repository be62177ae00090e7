// Package common — pluralize.go содержит форматирование чисел
// и сумм со знаком для ленты транзакций.
package common

import "fmt"

// FormatSignedMoney создаёт строку вида "+₹100" или "-₹50".
//
// Примеры:
//
//	FormatSignedMoney(100, true)  → "+₹100"
//	FormatSignedMoney(50, false)  → "-₹50"
func FormatSignedMoney(amount int64, credit bool) string {
	if credit {
		return "+" + FormatMoney(amount)
	}
	return "-" + FormatMoney(amount)
}

// FormatNumber форматирует число с разделителями тысяч (запятыми).
// Пример: FormatNumber(2350) → "2,350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000
	return fmt.Sprintf("%s,%03d", FormatNumber(rest), last)
}
