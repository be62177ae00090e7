// Package bot — Telegram-транспорт: цикл апдейтов, разбор команд,
// отрисовка экранов и обработка inline-кнопок.
package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/bot/filters"
	"serotonyl.ru/superfast-bot/internal/bot/middleware"
	"serotonyl.ru/superfast-bot/internal/config"
	"serotonyl.ru/superfast-bot/internal/features/auth"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/metrics"
)

// API — часть tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api API
	cfg *config.Config

	sessions *session.Manager
	auth     *auth.Service
	catalog  *catalog.Catalog

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	// пауза перед показом результата раунда
	resultDelay time.Duration
}

// New создаёт бота со всеми зависимостями.
func New(
	api API,
	cfg *config.Config,
	sessions *session.Manager,
	authService *auth.Service,
	cat *catalog.Catalog,
	chatFilter *filters.ChatFilter,
	rateLimiter *middleware.RateLimiter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	if cat == nil {
		cat = &catalog.Catalog{}
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		sessions:    sessions,
		auth:        authService,
		catalog:     cat,
		chatFilter:  chatFilter,
		rateLimiter: rateLimiter,
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
		resultDelay: cfg.TriviaResultDelay,
	}
}

// Start запускает polling обновлений от Telegram. Блокирует до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	switch {
	case update.CallbackQuery != nil:
		metrics.Updates.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		metrics.Updates.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	default:
		metrics.Updates.WithLabelValues("other").Inc()
	}
}

// handleMessage обрабатывает текстовое сообщение: фильтр, лимит, команда.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	middleware.LogMessage(message, cmd)

	if !b.chatFilter.CheckAccess(message) {
		return
	}
	userID := message.From.ID
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      len(args),
	}).Debug("parsed command")

	if !isCommand {
		b.sendMessage(chatID, hintText(b.sessions.GetOrCreate(userID).View()))
		return
	}
	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// handleCallback обрабатывает нажатие inline-кнопки.
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	middleware.LogCallback(q)

	if !b.chatFilter.CheckCallback(q) {
		b.answerCallback(q.ID, "")
		return
	}
	if !b.rateLimiter.Allow(q.From.ID) {
		b.answerAlert(q.ID, "⏳ Too many requests. Slow down a little.")
		return
	}

	action, err := ParseCallback(q.Data)
	if err != nil {
		log.WithError(err).WithField("data", q.Data).Warn("Неизвестная кнопка")
		b.answerCallback(q.ID, "")
		return
	}
	b.routeCallback(ctx, q, action)
}

// ─── Отправка ───────────────────────────────────────────────────────────────

// sendMessage — утилита для отправки простого текста.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// sendScreen отправляет новый экран с клавиатурой.
func (b *Bot) sendScreen(chatID int64, sc screen) {
	msg := tgbotapi.NewMessage(chatID, sc.text)
	if len(sc.keyboard.InlineKeyboard) > 0 {
		msg.ReplyMarkup = sc.keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки экрана")
	}
}

// editScreen заменяет сообщение с кнопками новым экраном.
func (b *Bot) editScreen(chatID int64, messageID int, sc screen) {
	var edit tgbotapi.EditMessageTextConfig
	if len(sc.keyboard.InlineKeyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, sc.text, sc.keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, sc.text)
	}
	if _, err := b.api.Send(edit); err != nil {
		// "message is not modified": нормальная ситуация при повторном нажатии
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось обновить экран")
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

func (b *Bot) answerAlert(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(id, text)); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

// ─── Разбор команд ──────────────────────────────────────────────────────────

// CommandParser разбирает команды с префиксами /, ! и .
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!", "."},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @имя_бота у команды отбрасывается: /login@superfast_bot → login.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	if command == "" {
		return "", nil, false
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
