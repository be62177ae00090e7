// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование денег и билетов, работа с временем.
package common

import (
	"fmt"
	"strings"
	"time"
)

// CurrencySymbol — символ валюты в сообщениях. Переопределяется из конфига при старте.
var CurrencySymbol = "₹"

// PluralizeTickets возвращает "Ticket" для 1 и "Tickets" для остальных.
//
// Примеры:
//
//	PluralizeTickets(1)   → "Ticket"
//	PluralizeTickets(0)   → "Tickets"
//	PluralizeTickets(100) → "Tickets"
func PluralizeTickets(n int) string {
	if n == 1 || n == -1 {
		return "Ticket"
	}
	return "Tickets"
}

// FormatTickets — "5 Tickets", "1 Ticket".
func FormatTickets(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeTickets(n))
}

// FormatMoney форматирует сумму с символом валюты.
// Пример: FormatMoney(1500) → "₹1,500"
func FormatMoney(amount int64) string {
	if amount < 0 {
		return "-" + CurrencySymbol + FormatNumber(-amount)
	}
	return CurrencySymbol + FormatNumber(amount)
}

// LastDigits возвращает последние n цифр строки (или всю строку, если она короче).
func LastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// FirstName — первое слово отображаемого имени ("Player 1" → "Player").
func FirstName(displayName string) string {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// appLocation — часовой пояс для отображения дат. Задаётся через SetTimezone.
var appLocation = time.FixedZone("IST", 5*60*60+30*60)

// SetTimezone загружает часовой пояс по имени (APP_TIMEZONE).
// При ошибке остаётся IST (UTC+5:30).
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	appLocation = loc
	return nil
}

// Location — часовой пояс приложения (для cron и отображения).
func Location() *time.Location {
	return appLocation
}

// LocalTime возвращает текущее время в часовом поясе приложения.
func LocalTime() time.Time {
	return time.Now().In(appLocation)
}

// FormatDateTime форматирует время в формат "02 Jan 2006, 15:04".
// Используется для отображения дат транзакций.
func FormatDateTime(t time.Time) string {
	return t.In(appLocation).Format("02 Jan 2006, 15:04")
}
