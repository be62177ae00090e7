// Package session — session.go: агрегат сессии одного пользователя.
//
// Все изменения баланса идут через ledger.RecordTransaction, билетов через
// tickets.Adjust/TryRemove, экрана через Navigate. Прямых присваиваний нет.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/auth"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/rewards"
	"serotonyl.ru/superfast-bot/internal/features/tickets"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
	"serotonyl.ru/superfast-bot/internal/features/wallet"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
	"serotonyl.ru/superfast-bot/internal/metrics"
)

// Settings — числовые правила экономики и таймауты.
type Settings struct {
	StartingTickets int
	WelcomeBonus    int64
	WinAmount       int64
	MinPhoneDigits  int
	DefaultName     string
	SpinDuration    time.Duration
	QuestionTimeout time.Duration
	MessageTimeout  time.Duration
}

// Deps — внешние возможности и правила, общие для всех сессий.
type Deps struct {
	Questions trivia.QuestionSupplier
	Messages  trivia.MessageGenerator
	Journal   Journal
	Wallet    wallet.Rules
	Rewards   *rewards.Store
	Segments  []wheel.Segment
	Random    wheel.Randomizer
}

// Session — состояние одного пользователя между входом и выходом.
type Session struct {
	userID   int64
	settings Settings
	deps     Deps

	mu         sync.Mutex
	identity   *Identity
	ledger     *ledger.Ledger
	tickets    *tickets.Store
	screen     Screen
	game       *trivia.Game
	wheel      *wheel.Wheel
	spins      *wheel.Stats
	epoch      uint64 // Растёт при каждом входе/выходе, отсекает запоздавшие результаты
	lastActive time.Time
	now        func() time.Time
}

// New создаёт неавторизованную сессию на экране Auth.
func New(userID int64, settings Settings, deps Deps) *Session {
	if deps.Journal == nil {
		deps.Journal = NopJournal{}
	}
	if deps.Messages == nil {
		deps.Messages = trivia.StaticMessages{}
	}
	if deps.Questions == nil {
		deps.Questions = trivia.NewOfflineBank(nil, nil)
	}
	if deps.Rewards == nil {
		deps.Rewards = rewards.NewStore(&catalog.Catalog{})
	}
	if settings.QuestionTimeout <= 0 {
		settings.QuestionTimeout = 10 * time.Second
	}
	if settings.MessageTimeout <= 0 {
		settings.MessageTimeout = 5 * time.Second
	}
	segments := deps.Segments
	if len(segments) == 0 {
		segments = wheel.DefaultSegments
	}

	s := &Session{
		userID:   userID,
		settings: settings,
		deps:     deps,
		ledger:   ledger.New(),
		tickets:  tickets.NewStore(settings.StartingTickets),
		screen:   Auth,
		game:     trivia.NewGame(settings.WinAmount),
		wheel:    wheel.New(segments, deps.Random, settings.SpinDuration),
		spins:    wheel.NewStats(len(segments)),
		now:      time.Now,
	}
	s.lastActive = s.now()
	return s
}

// UserID — Telegram ID владельца.
func (s *Session) UserID() int64 {
	return s.userID
}

// ─── Вход и выход ───────────────────────────────────────────────────────────

// Login создаёт личность и начинает сессию с чистого листа:
// пустой журнал, стартовые билеты, экран Dashboard.
// Приветственный бонус начисляется, только если это первое начисление сессии.
func (s *Session) Login(ctx context.Context, phoneNumber string) (Identity, error) {
	phone, err := auth.NormalizePhone(phoneNumber, s.settings.MinPhoneDigits)
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	if s.identity != nil {
		s.mu.Unlock()
		return Identity{}, common.ErrAlreadyAuthenticated
	}
	s.touchLocked()
	s.resetLocked()

	id := Identity{PhoneNumber: phone, DisplayName: s.settings.DefaultName}
	s.identity = &id
	s.screen = Dashboard

	var bonus *ledger.Transaction
	if s.settings.WelcomeBonus > 0 && s.ledger.Len() == 0 {
		tx, err := s.recordLocked(ledger.Entry{
			Amount:      s.settings.WelcomeBonus,
			Description: ledger.DescWelcomeBonus,
			Kind:        ledger.Credit,
		})
		if err != nil {
			s.mu.Unlock()
			return Identity{}, err
		}
		bonus = &tx
	}
	s.mu.Unlock()

	metrics.Logins.Inc()
	log.WithFields(log.Fields{
		"user_id": s.userID,
		"phone":   "****" + common.LastDigits(phone, 4),
	}).Info("Пользователь вошёл")

	s.journal(func(j Journal) error { return j.RecordLogin(ctx, s.userID, id) })
	if bonus != nil {
		s.journal(func(j Journal) error { return j.RecordTransaction(ctx, s.userID, *bonus) })
	}
	return id, nil
}

// Logout удаляет личность, журнал и билеты и возвращает на экран Auth.
// Все незавершённые фоновые задачи отменяются.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return common.ErrNotAuthenticated
	}
	s.touchLocked()
	s.resetLocked()

	metrics.Logouts.Inc()
	log.WithField("user_id", s.userID).Info("Пользователь вышел")
	return nil
}

// resetLocked возвращает сессию к значениям по умолчанию.
func (s *Session) resetLocked() {
	s.game.Reset()
	s.game.ResetStats()
	s.identity = nil
	s.ledger = ledger.New()
	s.tickets.Reset(s.settings.StartingTickets)
	s.spins = wheel.NewStats(len(s.wheel.Segments()))
	s.screen = Auth
	s.epoch++
}

// Close отменяет фоновые задачи. Вызывается при вытеснении сессии из памяти.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.Reset()
	s.epoch++
}

// ─── Навигация ──────────────────────────────────────────────────────────────

// Navigate переключает экран. Нужна авторизация; на Auth можно попасть только через Logout.
// Уход с экрана игры уничтожает текущий раунд.
func (s *Session) Navigate(target Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return common.ErrNotAuthenticated
	}
	if _, ok := screenNames[target]; !ok || target == Auth {
		return fmt.Errorf("%s: %w", target, common.ErrUnknownScreen)
	}
	s.touchLocked()

	if s.screen == Game && target != Game {
		s.game.Reset()
	}
	s.screen = target
	return nil
}

// ─── Викторина ──────────────────────────────────────────────────────────────

// StartRound начинает раунд (и "играть ещё раз"): списывает 1 билет до запроса вопроса
// и ждёт вопрос. Билет остаётся списанным при любом исходе.
func (s *Session) StartRound(ctx context.Context) (trivia.Round, error) {
	s.mu.Lock()
	if err := s.requireScreenLocked(Game); err != nil {
		s.mu.Unlock()
		return trivia.Round{}, err
	}
	s.touchLocked()

	roundID, err := s.game.Begin(func() bool {
		_, ok := s.tickets.TryRemove(1)
		return ok
	})
	if err != nil {
		s.mu.Unlock()
		return trivia.Round{}, err
	}
	metrics.TicketsAdjusted.WithLabelValues(tickets.Remove.String()).Inc()
	epoch := s.epoch
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"user_id":  s.userID,
		"round_id": roundID,
	}).Debug("Раунд начат, билет списан")

	qctx, cancel := context.WithTimeout(ctx, s.settings.QuestionTimeout)
	q, fetchErr := s.deps.Questions.FetchQuestion(qctx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.screen != Game {
		metrics.StaleResults.WithLabelValues("question").Inc()
		metrics.TriviaRounds.WithLabelValues("abandoned").Inc()
		return trivia.Round{}, common.ErrRoundAbandoned
	}

	replaced, err := s.game.Load(roundID, q, fetchErr)
	switch {
	case errors.Is(err, common.ErrRoundAbandoned):
		metrics.StaleResults.WithLabelValues("question").Inc()
		metrics.TriviaRounds.WithLabelValues("abandoned").Inc()
		return trivia.Round{}, err
	case err != nil:
		metrics.TriviaRounds.WithLabelValues("unavailable").Inc()
		log.WithFields(log.Fields{
			"user_id": s.userID,
			"cause":   fetchErr,
		}).Warn("Вопрос недоступен")
		return trivia.Round{}, err
	}
	if replaced {
		metrics.CapabilityFallbacks.WithLabelValues("question").Inc()
	}
	return s.game.Snapshot(), nil
}

// Answer выбирает вариант по индексу. Первый выбор окончательный.
// Правильный ответ сразу начисляет приз и запускает фоновую генерацию поздравления.
func (s *Session) Answer(ctx context.Context, optionIndex int) (trivia.Round, error) {
	s.mu.Lock()
	if err := s.requireScreenLocked(Game); err != nil {
		s.mu.Unlock()
		return trivia.Round{}, err
	}
	s.touchLocked()

	current := s.game.Snapshot()
	if !current.HasQuestion() {
		s.mu.Unlock()
		return trivia.Round{}, common.ErrNoActiveRound
	}
	if current.State == trivia.Resolved {
		// Повторный выбор ничего не меняет, даже с чужим индексом
		s.mu.Unlock()
		return current, nil
	}
	if optionIndex < 0 || optionIndex >= len(current.Question.Options) {
		s.mu.Unlock()
		return trivia.Round{}, common.ErrUnknownOption
	}

	res, first, err := s.game.Answer(current.Question.Options[optionIndex])
	if err != nil || !first {
		s.mu.Unlock()
		return res, err
	}

	var win *ledger.Transaction
	if res.Correct {
		tx, err := s.recordLocked(ledger.Entry{
			Amount:      res.Prize,
			Description: ledger.DescGameWin,
			Kind:        ledger.Credit,
		})
		if err != nil {
			s.mu.Unlock()
			return res, err
		}
		win = &tx
		s.startMessageTaskLocked(res.ID, res.Prize)
		metrics.TriviaRounds.WithLabelValues("won").Inc()
	} else {
		metrics.TriviaRounds.WithLabelValues("lost").Inc()
	}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"user_id": s.userID,
		"correct": res.Correct,
	}).Info("Раунд викторины завершён")

	if win != nil {
		s.journal(func(j Journal) error { return j.RecordTransaction(ctx, s.userID, *win) })
	}
	return res, nil
}

// startMessageTaskLocked запускает генерацию поздравления в фоне.
// Результат применяется, только если раунд всё ещё текущий.
func (s *Session) startMessageTaskLocked(roundID string, amount int64) {
	mctx, cancel := context.WithTimeout(context.Background(), s.settings.MessageTimeout)
	s.game.AttachTask(roundID, cancel)

	go func() {
		defer cancel()
		msg := s.deps.Messages.GenerateWinMessage(mctx, amount)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.game.SetMessage(roundID, msg) {
			metrics.StaleResults.WithLabelValues("message").Inc()
			log.WithField("user_id", s.userID).Debug("Поздравление устарело, отброшено")
		}
	}()
}

// ExitGame выходит из мини-игры на главный экран.
func (s *Session) ExitGame() error {
	s.mu.Lock()
	if err := s.requireScreenLocked(Game); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.Navigate(Dashboard)
}

// Round — снимок текущего раунда.
func (s *Session) Round() trivia.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// ─── Колесо ─────────────────────────────────────────────────────────────────

// Spin крутит колесо. Пока вращение не закончилось, второе получает ErrSpinInProgress.
// Результат применяется и после ухода с экрана, но не после выхода из аккаунта.
func (s *Session) Spin(ctx context.Context) (wheel.Outcome, error) {
	s.mu.Lock()
	if err := s.requireScreenLocked(Spin); err != nil {
		s.mu.Unlock()
		return wheel.Outcome{}, err
	}
	s.touchLocked()
	epoch := s.epoch
	s.mu.Unlock()

	outcome, err := s.wheel.Spin(ctx)
	if err != nil {
		return wheel.Outcome{}, err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.WithField("user_id", s.userID).Debug("Результат вращения после выхода, отброшен")
		return outcome, common.ErrNotAuthenticated
	}

	var cash *ledger.Transaction
	seg := outcome.Segment
	switch {
	case seg.IsEmpty():
	case seg.Kind == wheel.Cash:
		tx, err := s.recordLocked(ledger.Entry{
			Amount:      int64(seg.Quantity),
			Description: ledger.DescSpinReward,
			Kind:        ledger.Credit,
		})
		if err != nil {
			s.mu.Unlock()
			return outcome, err
		}
		cash = &tx
	default:
		s.tickets.Adjust(seg.Quantity, tickets.Add)
		metrics.TicketsAdjusted.WithLabelValues(tickets.Add.String()).Add(float64(seg.Quantity))
	}
	s.spins.Record(outcome)
	s.mu.Unlock()

	metrics.WheelSpins.WithLabelValues(seg.Label).Inc()
	log.WithFields(log.Fields{
		"user_id": s.userID,
		"segment": seg.Label,
	}).Info("Колесо остановилось")

	s.journal(func(j Journal) error { return j.RecordSpin(ctx, s.userID, outcome) })
	if cash != nil {
		s.journal(func(j Journal) error { return j.RecordTransaction(ctx, s.userID, *cash) })
	}
	return outcome, nil
}

// Segments — сектора колеса для отрисовки.
func (s *Session) Segments() []wheel.Segment {
	return s.wheel.Segments()
}

// ─── Кошелёк и магазин ──────────────────────────────────────────────────────

// Deposit — имитация пополнения через UPI.
func (s *Session) Deposit(ctx context.Context, amount int64, upiID string) (ledger.Transaction, error) {
	entry, err := s.deps.Wallet.Deposit(amount, upiID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return s.settle(ctx, entry, s.deps.Wallet.Process)
}

// Withdraw — имитация вывода. Сумма больше баланса отклоняется до обращения к журналу.
func (s *Session) Withdraw(ctx context.Context, amount int64, method wallet.Method, details string) (ledger.Transaction, error) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return ledger.Transaction{}, common.ErrNotAuthenticated
	}
	balance := s.ledger.Balance()
	s.mu.Unlock()

	entry, err := s.deps.Wallet.Withdraw(amount, balance, method, details)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return s.settle(ctx, entry, s.deps.Wallet.Process)
}

// Redeem обменивает баланс на товар и возвращает код ваучера.
func (s *Session) Redeem(ctx context.Context, itemID string) (rewards.Redemption, ledger.Transaction, error) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return rewards.Redemption{}, ledger.Transaction{}, common.ErrNotAuthenticated
	}
	balance := s.ledger.Balance()
	s.mu.Unlock()

	red, err := s.deps.Rewards.Plan(itemID, balance)
	if err != nil {
		return rewards.Redemption{}, ledger.Transaction{}, err
	}
	tx, err := s.settle(ctx, red.Entry, nil)
	if err != nil {
		return rewards.Redemption{}, ledger.Transaction{}, err
	}
	return red, tx, nil
}

// settle выполняет необязательную задержку обработки и записывает транзакцию,
// если за это время пользователь не вышел.
func (s *Session) settle(ctx context.Context, entry ledger.Entry, process func(context.Context) error) (ledger.Transaction, error) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return ledger.Transaction{}, common.ErrNotAuthenticated
	}
	s.touchLocked()
	epoch := s.epoch
	s.mu.Unlock()

	if process != nil {
		if err := process(ctx); err != nil {
			return ledger.Transaction{}, err
		}
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ledger.Transaction{}, common.ErrNotAuthenticated
	}
	tx, err := s.recordLocked(entry)
	s.mu.Unlock()
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.journal(func(j Journal) error { return j.RecordTransaction(ctx, s.userID, tx) })
	return tx, nil
}

// ─── Чтение состояния ───────────────────────────────────────────────────────

// View — снимок всего, что нужно для отрисовки экрана.
type View struct {
	Authenticated bool
	Identity      Identity
	Screen        Screen
	Title         string
	Balance       int64
	Tickets       int
	Round         trivia.Round
	Spinning      bool
}

// View возвращает согласованный снимок состояния.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Authenticated: s.identity != nil,
		Screen:        s.screen,
		Balance:       s.ledger.Balance(),
		Tickets:       s.tickets.Count(),
		Round:         s.game.Snapshot(),
		Spinning:      s.wheel.Spinning(),
	}
	if s.identity != nil {
		v.Identity = *s.identity
	}
	v.Title = Title(v.Screen, v.Identity.DisplayName)
	return v
}

// ProfileSummary — данные экрана профиля.
type ProfileSummary struct {
	Identity      Identity
	PlayerID      string // "KP" + последние 4 цифры номера
	Balance       int64
	Tickets       int
	TotalWinnings int64 // Сумма начислений "Game Win"
	RoundsPlayed  int
	Spins         int
	History       []ledger.Transaction // Новые первыми
}

// Profile собирает профиль текущего пользователя.
func (s *Session) Profile() (ProfileSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return ProfileSummary{}, common.ErrNotAuthenticated
	}
	return ProfileSummary{
		Identity:      *s.identity,
		PlayerID:      "KP" + common.LastDigits(s.identity.PhoneNumber, 4),
		Balance:       s.ledger.Balance(),
		Tickets:       s.tickets.Count(),
		TotalWinnings: s.ledger.SumCredits(ledger.DescGameWin),
		RoundsPlayed:  s.game.RoundsFinished(),
		Spins:         s.spins.Spins(),
		History:       s.ledger.History(),
	}, nil
}

// History — лента транзакций, новые первыми.
func (s *Session) History() []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.History()
}

// IdleSince — время последнего действия пользователя.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ─── Внутреннее ─────────────────────────────────────────────────────────────

func (s *Session) requireScreenLocked(screen Screen) error {
	if s.identity == nil {
		return common.ErrNotAuthenticated
	}
	if s.screen != screen {
		return fmt.Errorf("need %s, on %s: %w", screen, s.screen, common.ErrWrongScreen)
	}
	return nil
}

// recordLocked — единственная точка записи в журнал сессии.
func (s *Session) recordLocked(e ledger.Entry) (ledger.Transaction, error) {
	tx, err := s.ledger.RecordTransaction(e.Amount, e.Description, e.Kind)
	if err != nil {
		return tx, err
	}
	kind := tx.Kind.String()
	metrics.Transactions.WithLabelValues(kind).Inc()
	metrics.TransactionAmount.WithLabelValues(kind).Add(float64(tx.Amount))

	log.WithFields(log.Fields{
		"user_id": s.userID,
		"amount":  tx.Signed(),
		"desc":    tx.Description,
		"balance": s.ledger.Balance(),
	}).Debug("Транзакция записана")
	return tx, nil
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

func (s *Session) journal(write func(Journal) error) {
	if err := write(s.deps.Journal); err != nil {
		log.WithError(err).WithField("user_id", s.userID).Warn("Не удалось записать в журнал аудита")
	}
}
