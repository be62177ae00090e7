package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/rewards"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
	"serotonyl.ru/superfast-bot/internal/features/wallet"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
)

const phone = "9876543210"

// --- Фейки внешних возможностей ---

type stubSupplier struct {
	q    *trivia.Question
	err  error
	gate chan struct{} // если не nil, ответ ждёт закрытия
}

func (s *stubSupplier) FetchQuestion(ctx context.Context) (*trivia.Question, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.q, s.err
}

type stubMessages struct {
	text      string
	gate      chan struct{}
	cancelled chan struct{}
}

func (m *stubMessages) GenerateWinMessage(ctx context.Context, amount int64) string {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			close(m.cancelled)
			return trivia.FallbackWinMessage(amount)
		}
	}
	return m.text
}

type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) RecordLogin(ctx context.Context, userID int64, id Identity) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockJournal) RecordTransaction(ctx context.Context, userID int64, tx ledger.Transaction) error {
	return m.Called(ctx, userID, tx).Error(0)
}

func (m *mockJournal) RecordSpin(ctx context.Context, userID int64, o wheel.Outcome) error {
	return m.Called(ctx, userID, o).Error(0)
}

// --- Хелперы ---

func testSettings() Settings {
	return Settings{
		StartingTickets: 5,
		WelcomeBonus:    10,
		WinAmount:       1,
		MinPhoneDigits:  10,
		DefaultName:     "Player 1",
		QuestionTimeout: time.Second,
		MessageTimeout:  time.Second,
	}
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return Deps{
		Questions: &stubSupplier{q: trivia.FallbackQuestion()},
		Messages:  &stubMessages{text: "Shabash!"},
		Wallet:    wallet.Rules{MinAmount: 10},
		Rewards:   rewards.NewStore(c),
		Random:    fixedRandom(0),
	}
}

func loggedIn(t *testing.T, settings Settings, deps Deps) *Session {
	t.Helper()
	s := New(42, settings, deps)
	_, err := s.Login(context.Background(), phone)
	require.NoError(t, err)
	return s
}

// indexOf — индекс варианта в текущем вопросе.
func indexOf(t *testing.T, s *Session, option string) int {
	t.Helper()
	for i, o := range s.Round().Question.Options {
		if o == option {
			return i
		}
	}
	t.Fatalf("option %q not found", option)
	return -1
}

// --- Вход, выход, навигация ---

func TestLogin(t *testing.T) {
	t.Run("WelcomeBonusAndDashboard", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		v := s.View()

		assert.True(t, v.Authenticated)
		assert.Equal(t, Dashboard, v.Screen)
		assert.Equal(t, "Hi, Player 👋", v.Title)
		assert.Equal(t, int64(10), v.Balance)
		assert.Equal(t, 5, v.Tickets)

		h := s.History()
		require.Len(t, h, 1)
		assert.Equal(t, ledger.DescWelcomeBonus, h[0].Description)
		assert.Equal(t, ledger.Credit, h[0].Kind)
	})

	t.Run("InvalidPhone", func(t *testing.T) {
		s := New(1, testSettings(), testDeps(t))
		_, err := s.Login(context.Background(), "12345")
		assert.ErrorIs(t, err, common.ErrInvalidPhoneNumber)
		assert.Equal(t, Auth, s.View().Screen)
		assert.Empty(t, s.History())
	})

	t.Run("AlreadyAuthenticated", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		_, err := s.Login(context.Background(), phone)
		assert.ErrorIs(t, err, common.ErrAlreadyAuthenticated)
		assert.Len(t, s.History(), 1)
	})

	t.Run("JournalFailureDoesNotBreakLogin", func(t *testing.T) {
		j := &mockJournal{}
		j.On("RecordLogin", mock.Anything, int64(42), Identity{PhoneNumber: phone, DisplayName: "Player 1"}).
			Return(errors.New("db down"))
		j.On("RecordTransaction", mock.Anything, int64(42), mock.MatchedBy(func(tx ledger.Transaction) bool {
			return tx.Description == ledger.DescWelcomeBonus && tx.Amount == 10
		})).Return(nil)

		deps := testDeps(t)
		deps.Journal = j
		s := loggedIn(t, testSettings(), deps)

		assert.Equal(t, int64(10), s.View().Balance)
		mock.AssertExpectationsForObjects(t, j)
	})
}

func TestLogoutThenLoginResets(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.NoError(t, s.Navigate(Game))
	_, err := s.StartRound(context.Background())
	require.NoError(t, err)
	_, err = s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
	require.NoError(t, err)
	require.Equal(t, int64(11), s.View().Balance)

	require.NoError(t, s.Logout())
	v := s.View()
	assert.False(t, v.Authenticated)
	assert.Equal(t, Auth, v.Screen)
	assert.Equal(t, int64(0), v.Balance)
	assert.Equal(t, 5, v.Tickets)
	assert.Empty(t, s.History())
	assert.ErrorIs(t, s.Logout(), common.ErrNotAuthenticated)

	_, err = s.Login(context.Background(), phone)
	require.NoError(t, err)
	v = s.View()
	assert.Equal(t, int64(10), v.Balance)
	assert.Equal(t, 5, v.Tickets)
	assert.Len(t, s.History(), 1)
}

func TestNavigate(t *testing.T) {
	t.Run("RequiresAuth", func(t *testing.T) {
		s := New(1, testSettings(), testDeps(t))
		assert.ErrorIs(t, s.Navigate(Wallet), common.ErrNotAuthenticated)
		assert.Equal(t, Auth, s.View().Screen)
	})

	t.Run("AllScreens", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		for _, target := range []Screen{Game, Spin, Wallet, Rewards, Profile, Dashboard} {
			require.NoError(t, s.Navigate(target))
			assert.Equal(t, target, s.View().Screen)
		}
		assert.Equal(t, int64(10), s.View().Balance)
	})

	t.Run("AuthIsNotATarget", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		assert.ErrorIs(t, s.Navigate(Auth), common.ErrUnknownScreen)
		assert.ErrorIs(t, s.Navigate(Screen(99)), common.ErrUnknownScreen)
		assert.Equal(t, Dashboard, s.View().Screen)
	})

	t.Run("LeavingGameDestroysRound", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		require.NoError(t, s.Navigate(Game))
		_, err := s.StartRound(context.Background())
		require.NoError(t, err)

		require.NoError(t, s.Navigate(Wallet))
		assert.Equal(t, trivia.Idle, s.Round().State)
	})
}

// --- Викторина ---

func TestTriviaScenario(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.Equal(t, int64(10), s.View().Balance)

	require.NoError(t, s.Navigate(Game))
	require.Equal(t, 5, s.View().Tickets)

	round, err := s.StartRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trivia.Answering, round.State)
	assert.Equal(t, 4, s.View().Tickets)

	res, err := s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, int64(11), s.View().Balance)

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, ledger.DescGameWin, h[0].Description)
	assert.Equal(t, int64(1), h[0].Amount)
	assert.Equal(t, ledger.DescWelcomeBonus, h[1].Description)
	assert.Equal(t, int64(10), h[1].Amount)
}

func TestWrongAnswerCreditsNothing(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.NoError(t, s.Navigate(Game))
	_, err := s.StartRound(context.Background())
	require.NoError(t, err)

	res, err := s.Answer(context.Background(), indexOf(t, s, "Mars"))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, int64(10), s.View().Balance)
	assert.Len(t, s.History(), 1)

	// повторный выбор ничего не меняет
	res, err = s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
	require.NoError(t, err)
	assert.Equal(t, "Mars", res.Selected)
	assert.Equal(t, int64(10), s.View().Balance)
}

func TestAnswerAfterResolvedIgnoresAnyIndex(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.NoError(t, s.Navigate(Game))
	_, err := s.StartRound(context.Background())
	require.NoError(t, err)

	_, err = s.Answer(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrUnknownOption)

	_, err = s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
	require.NoError(t, err)

	for _, idx := range []int{-1, 99} {
		res, err := s.Answer(context.Background(), idx)
		require.NoError(t, err, "index %d", idx)
		assert.Equal(t, trivia.Resolved, res.State)
		assert.Equal(t, "Jupiter", res.Selected)
	}
	assert.Equal(t, int64(11), s.View().Balance)
	assert.Len(t, s.History(), 2)
}

func TestStartRoundWithoutTickets(t *testing.T) {
	settings := testSettings()
	settings.StartingTickets = 0
	s := loggedIn(t, settings, testDeps(t))
	require.NoError(t, s.Navigate(Game))

	_, err := s.StartRound(context.Background())
	assert.ErrorIs(t, err, common.ErrInsufficientTickets)
	assert.Equal(t, 0, s.View().Tickets)
	assert.Equal(t, int64(10), s.View().Balance)
	assert.Len(t, s.History(), 1)
	assert.Equal(t, Game, s.View().Screen)
	assert.Equal(t, trivia.Idle, s.Round().State)
}

func TestStartRoundSupplierFailureSpendsTicket(t *testing.T) {
	deps := testDeps(t)
	deps.Questions = &stubSupplier{err: errors.New("unreachable")}
	s := loggedIn(t, testSettings(), deps)
	require.NoError(t, s.Navigate(Game))

	_, err := s.StartRound(context.Background())
	assert.ErrorIs(t, err, common.ErrQuestionUnavailable)
	assert.Equal(t, 4, s.View().Tickets)
	assert.Equal(t, trivia.Idle, s.Round().State)
}

func TestStartRoundWrongScreen(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	_, err := s.StartRound(context.Background())
	assert.ErrorIs(t, err, common.ErrWrongScreen)
	assert.Equal(t, 5, s.View().Tickets)
}

func TestQuestionArrivesAfterNavigation(t *testing.T) {
	gate := make(chan struct{})
	deps := testDeps(t)
	deps.Questions = &stubSupplier{q: trivia.FallbackQuestion(), gate: gate}
	s := loggedIn(t, testSettings(), deps)
	require.NoError(t, s.Navigate(Game))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.StartRound(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool { return s.Round().State == trivia.Loading }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Navigate(Dashboard))
	close(gate)

	assert.ErrorIs(t, <-errCh, common.ErrRoundAbandoned)
	assert.Equal(t, 4, s.View().Tickets)
	assert.Equal(t, trivia.Idle, s.Round().State)
}

func TestWinMessage(t *testing.T) {
	t.Run("AppliedToActiveRound", func(t *testing.T) {
		s := loggedIn(t, testSettings(), testDeps(t))
		require.NoError(t, s.Navigate(Game))
		_, err := s.StartRound(context.Background())
		require.NoError(t, err)
		_, err = s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return s.Round().WinMessage() == "Shabash!"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("StaleAfterNavigation", func(t *testing.T) {
		msgs := &stubMessages{text: "late", gate: make(chan struct{}), cancelled: make(chan struct{})}
		deps := testDeps(t)
		deps.Messages = msgs
		s := loggedIn(t, testSettings(), deps)
		require.NoError(t, s.Navigate(Game))
		_, err := s.StartRound(context.Background())
		require.NoError(t, err)

		res, err := s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
		require.NoError(t, err)
		assert.Equal(t, trivia.DefaultResultText, res.WinMessage())
		// баланс начислен сразу, не дожидаясь поздравления
		assert.Equal(t, int64(11), s.View().Balance)

		require.NoError(t, s.ExitGame())
		select {
		case <-msgs.cancelled:
		case <-time.After(time.Second):
			t.Fatal("message task was not cancelled")
		}
		assert.Equal(t, trivia.Idle, s.Round().State)
		assert.Equal(t, Dashboard, s.View().Screen)
		assert.Equal(t, int64(11), s.View().Balance)
	})
}

func TestPlayAgain(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.NoError(t, s.Navigate(Game))
	_, err := s.StartRound(context.Background())
	require.NoError(t, err)
	_, err = s.Answer(context.Background(), 0)
	require.NoError(t, err)

	round, err := s.StartRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trivia.Answering, round.State)
	assert.Empty(t, round.Selected)
	assert.Equal(t, 3, s.View().Tickets)
}

// --- Колесо ---

func TestSpinOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		index   int
		balance int64
		tickets int
	}{
		{"Cash5", 6, 15, 5},
		{"HundredTickets", 5, 10, 105},
		{"TryAgain", 3, 10, 5},
		{"Cash1", 1, 11, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := testDeps(t)
			deps.Random = fixedRandom(tc.index)
			s := loggedIn(t, testSettings(), deps)
			require.NoError(t, s.Navigate(Spin))

			o, err := s.Spin(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.index, o.Index)
			assert.Equal(t, tc.balance, s.View().Balance)
			assert.Equal(t, tc.tickets, s.View().Tickets)
		})
	}
}

func TestSpinCashDescription(t *testing.T) {
	deps := testDeps(t)
	deps.Random = fixedRandom(6)
	s := loggedIn(t, testSettings(), deps)
	require.NoError(t, s.Navigate(Spin))
	_, err := s.Spin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.DescSpinReward, s.History()[0].Description)
}

func TestSpinRequiresSpinScreen(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	_, err := s.Spin(context.Background())
	assert.ErrorIs(t, err, common.ErrWrongScreen)
}

func TestSpinResolution(t *testing.T) {
	t.Run("AppliedAfterNavigation", func(t *testing.T) {
		settings := testSettings()
		settings.SpinDuration = 100 * time.Millisecond
		deps := testDeps(t)
		deps.Random = fixedRandom(6)
		s := loggedIn(t, settings, deps)
		require.NoError(t, s.Navigate(Spin))

		errCh := make(chan error, 1)
		go func() {
			_, err := s.Spin(context.Background())
			errCh <- err
		}()
		require.Eventually(t, func() bool { return s.View().Spinning }, time.Second, time.Millisecond)

		_, err := s.Spin(context.Background())
		assert.ErrorIs(t, err, common.ErrSpinInProgress)

		require.NoError(t, s.Navigate(Dashboard))
		require.NoError(t, <-errCh)
		assert.Equal(t, int64(15), s.View().Balance)
	})

	t.Run("DiscardedAfterLogout", func(t *testing.T) {
		settings := testSettings()
		settings.SpinDuration = 100 * time.Millisecond
		deps := testDeps(t)
		deps.Random = fixedRandom(6)
		s := loggedIn(t, settings, deps)
		require.NoError(t, s.Navigate(Spin))

		errCh := make(chan error, 1)
		go func() {
			_, err := s.Spin(context.Background())
			errCh <- err
		}()
		require.Eventually(t, func() bool { return s.View().Spinning }, time.Second, time.Millisecond)

		require.NoError(t, s.Logout())
		_, err := s.Login(context.Background(), phone)
		require.NoError(t, err)

		assert.ErrorIs(t, <-errCh, common.ErrNotAuthenticated)
		assert.Equal(t, int64(10), s.View().Balance)
		assert.Len(t, s.History(), 1)
	})
}

// --- Кошелёк и магазин ---

func TestWithdrawExceedingBalance(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	_, err := s.Deposit(context.Background(), 10, "player@upi")
	require.NoError(t, err)
	require.Equal(t, int64(20), s.View().Balance)

	_, err = s.Withdraw(context.Background(), 50, wallet.UPI, "player@upi")
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Equal(t, int64(20), s.View().Balance)
	assert.Len(t, s.History(), 2)
}

func TestDepositAndWithdraw(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))

	tx, err := s.Deposit(context.Background(), 100, "player@upi")
	require.NoError(t, err)
	assert.Equal(t, "Wallet Deposit (UPI: player@upi)", tx.Description)

	tx, err = s.Withdraw(context.Background(), 60, wallet.Bank, "HDFC 0001")
	require.NoError(t, err)
	assert.Equal(t, "Withdrawal to Bank (HDFC 0001)", tx.Description)
	assert.Equal(t, int64(50), s.View().Balance)

	_, err = s.Deposit(context.Background(), 5, "player@upi")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestWalletRequiresAuth(t *testing.T) {
	s := New(1, testSettings(), testDeps(t))
	_, err := s.Deposit(context.Background(), 100, "player@upi")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	_, err = s.Withdraw(context.Background(), 100, wallet.UPI, "player@upi")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestRedeem(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))

	_, _, err := s.Redeem(context.Background(), "recharge")
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Len(t, s.History(), 1)

	_, err = s.Deposit(context.Background(), 100, "player@upi")
	require.NoError(t, err)

	red, tx, err := s.Redeem(context.Background(), "recharge")
	require.NoError(t, err)
	assert.Equal(t, "Redeemed: Mobile Recharge", tx.Description)
	assert.Equal(t, ledger.Debit, tx.Kind)
	assert.NotEmpty(t, red.Voucher)
	assert.Equal(t, int64(60), s.View().Balance)

	_, _, err = s.Redeem(context.Background(), "yacht")
	assert.ErrorIs(t, err, common.ErrUnknownReward)
}

// --- Профиль ---

func TestProfile(t *testing.T) {
	s := loggedIn(t, testSettings(), testDeps(t))
	require.NoError(t, s.Navigate(Game))
	for i := 0; i < 2; i++ {
		_, err := s.StartRound(context.Background())
		require.NoError(t, err)
		_, err = s.Answer(context.Background(), indexOf(t, s, "Jupiter"))
		require.NoError(t, err)
	}

	p, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, "KP3210", p.PlayerID)
	assert.Equal(t, "Player 1", p.Identity.DisplayName)
	assert.Equal(t, int64(2), p.TotalWinnings)
	assert.Equal(t, 2, p.RoundsPlayed)
	assert.Equal(t, int64(12), p.Balance)
	assert.Equal(t, 3, p.Tickets)
	assert.Len(t, p.History, 3)

	_, err = New(1, testSettings(), testDeps(t)).Profile()
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}
