// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: журнал аудита, каталог, источники вопросов,
// менеджер сессий, вход, бот, планировщик и служебный HTTP-сервер.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/bot"
	"serotonyl.ru/superfast-bot/internal/bot/filters"
	"serotonyl.ru/superfast-bot/internal/bot/middleware"
	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/config"
	"serotonyl.ru/superfast-bot/internal/db/postgres"
	"serotonyl.ru/superfast-bot/internal/features/audit"
	"serotonyl.ru/superfast-bot/internal/features/auth"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/rewards"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
	"serotonyl.ru/superfast-bot/internal/features/wallet"
	"serotonyl.ru/superfast-bot/internal/jobs"
	"serotonyl.ru/superfast-bot/internal/metrics"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Sessions  *session.Manager
	Metrics   *metrics.Server // nil, если METRICS_ENABLED=false
	DB        *pgxpool.Pool   // nil, если AUDIT_ENABLED=false
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Общие настройки ===
	if err := common.SetTimezone(cfg.AppTimezone); err != nil {
		log.WithError(err).Warn("Часовой пояс не загружен, используем IST")
	}
	common.CurrencySymbol = cfg.EconomyCurrencySymbol

	// === 2. Журнал аудита ===
	var (
		pool    *pgxpool.Pool
		journal session.Journal = session.NopJournal{}
	)
	if cfg.AuditEnabled {
		var err error
		pool, err = postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		journal = audit.NewRepository(pool)
	} else {
		log.Info("Журнал аудита отключён (AUDIT_ENABLED=false)")
	}

	// === 3. Каталог ===
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	log.WithFields(log.Fields{
		"rewards":   len(cat.Rewards),
		"games":     len(cat.Games),
		"questions": len(cat.Questions),
	}).Info("Каталог загружен")

	// === 4. Источники вопросов и поздравлений ===
	questions, messages := newTriviaSources(cfg, cat)

	// === 5. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		closePool(pool)
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.IsDevelopment()
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 6. Сессии и вход ===
	sessions := session.NewManager(session.Settings{
		StartingTickets: cfg.EconomyStartingTickets,
		WelcomeBonus:    cfg.EconomyWelcomeBonus,
		WinAmount:       cfg.EconomyGameWinAmount,
		MinPhoneDigits:  cfg.AuthMinPhoneDigits,
		DefaultName:     cfg.AuthDefaultName,
		SpinDuration:    cfg.SpinDuration,
		QuestionTimeout: cfg.TriviaQuestionTimeout,
		MessageTimeout:  cfg.TriviaMessageTimeout,
	}, session.Deps{
		Questions: questions,
		Messages:  messages,
		Journal:   journal,
		Wallet: wallet.Rules{
			MinAmount:       cfg.WalletMinAmount,
			ProcessingDelay: cfg.WalletProcessingDelay,
		},
		Rewards: rewards.NewStore(cat),
	})

	authService := auth.NewService(auth.Options{
		MinPhoneDigits: cfg.AuthMinPhoneDigits,
		CodeLength:     cfg.AuthCodeLength,
		CodeTTL:        cfg.AuthCodeTTL,
		MaxAttempts:    cfg.AuthMaxAttempts,
		MasterCodeHash: cfg.AuthMasterCodeHash,
	})

	// === 7. Бот ===
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	chatFilter := filters.NewChatFilter(botAPI)
	b := bot.New(botAPI, cfg, sessions, authService, cat, chatFilter, rateLimiter)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(sessions, authService, rateLimiter, cfg.SessionIdleTTL)

	// === 9. Метрики и health-check ===
	var metricsServer *metrics.Server
	if cfg.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, healthCheck(pool))
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Sessions:  sessions,
		Metrics:   metricsServer,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает ресурсы после остановки бота.
func (a *App) Close(ctx context.Context) {
	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Ошибка остановки сервера метрик")
		}
	}
	closePool(a.DB)
}

// newTriviaSources выбирает Gemini при наличии ключа, иначе офлайн-банк каталога.
func newTriviaSources(cfg *config.Config, cat *catalog.Catalog) (trivia.QuestionSupplier, trivia.MessageGenerator) {
	if cfg.GeminiAPIKey == "" {
		bank := trivia.NewOfflineBank(trivia.FromCatalog(cat.Questions), nil)
		log.WithField("questions", bank.Len()).Info("GEMINI_API_KEY не задан, вопросы из офлайн-банка")
		return bank, trivia.StaticMessages{}
	}

	client := trivia.NewGeminiClient(trivia.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.TriviaQuestionTimeout,
	}, nil)
	log.WithField("model", cfg.GeminiModel).Info("Вопросы генерирует Gemini")
	return client, client
}

// healthCheck пингует БД, если журнал включён.
func healthCheck(pool *pgxpool.Pool) metrics.HealthFunc {
	if pool == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
