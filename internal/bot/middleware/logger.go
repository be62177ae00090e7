// Package middleware содержит промежуточные обработчики апдейтов:
// логирование, восстановление после паники и ограничение частоты.
package middleware

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const maxLoggedText = 50

// Команды, аргументы которых нельзя писать в лог.
var secretCommands = map[string]bool{
	"otp":  true,
	"code": true,
}

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст (первые 50 символов).
// cmd — команда после разбора CommandParser (с любым префиксом).
// Коды подтверждения в лог не попадают.
func LogMessage(message *tgbotapi.Message, cmd string) {
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	text := message.Text
	if secretCommands[cmd] {
		text = cmd + " ****"
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
		"text":     truncate(text),
	}).Debug("Входящее сообщение")
}

// LogCallback логирует нажатие inline-кнопки.
func LogCallback(q *tgbotapi.CallbackQuery) {
	if q == nil || q.From == nil {
		return
	}
	log.WithFields(log.Fields{
		"user_id":  q.From.ID,
		"username": q.From.UserName,
		"data":     q.Data,
	}).Debug("Нажата кнопка")
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxLoggedText {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLoggedText]) + "..."
}
