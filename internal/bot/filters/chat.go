// Package filters решает, какие апдейты бот вообще обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const denyText = "🔒 SUPER FAST works only in a private chat. Open a direct conversation with the bot."

// Sender — часть Telegram API, нужная фильтру.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatFilter пропускает только личные чаты: сессия привязана к пользователю,
// а экраны с балансом и кодами нельзя показывать в группе.
type ChatFilter struct {
	bot Sender
}

func NewChatFilter(bot Sender) *ChatFilter {
	return &ChatFilter{bot: bot}
}

// CheckAccess проверяет сообщение. В группах отвечает отказом.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if message.Chat.IsPrivate() {
		return true
	}

	logger.Info("deny: not a private chat")
	if f.bot != nil && message.IsCommand() {
		if _, err := f.bot.Send(tgbotapi.NewMessage(message.Chat.ID, denyText)); err != nil {
			logger.WithError(err).Warn("failed to send deny message")
		}
	}
	return false
}

// CheckCallback проверяет нажатие кнопки: сообщение с кнопкой должно быть из лички.
func (f *ChatFilter) CheckCallback(q *tgbotapi.CallbackQuery) bool {
	if q == nil || q.From == nil || q.Message == nil || q.Message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("incomplete callback query")
		return false
	}
	if !q.Message.Chat.IsPrivate() {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   q.Message.Chat.ID,
			"user_id":   q.From.ID,
		}).Info("deny callback: not a private chat")
		return false
	}
	return true
}
