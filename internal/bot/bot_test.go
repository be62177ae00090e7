package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/superfast-bot/internal/bot/filters"
	"serotonyl.ru/superfast-bot/internal/bot/middleware"
	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/config"
	"serotonyl.ru/superfast-bot/internal/features/auth"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/rewards"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
	"serotonyl.ru/superfast-bot/internal/features/wallet"
)

const testUser int64 = 555

// fakeAPI записывает всё, что бот отправил в Telegram.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

// texts — тексты всех отправленных сообщений и правок по порядку.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) lastCallback() tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb
		}
	}
	return tgbotapi.CallbackConfig{}
}

type fixedRandom int

func (r fixedRandom) IntN(n int) int { return int(r) % n }

func newTestBot(t *testing.T, wheelIndex int) (*Bot, *fakeAPI) {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:               "development",
		BotMaxInflight:       4,
		EconomyGameWinAmount: 1,
		WalletMinAmount:      10,
		AuthCodeTTL:          5 * time.Minute,
	}
	manager := session.NewManager(session.Settings{
		StartingTickets: 5,
		WelcomeBonus:    10,
		WinAmount:       1,
		MinPhoneDigits:  10,
		DefaultName:     "Player 1",
	}, session.Deps{
		Questions: trivia.NewOfflineBank([]trivia.Question{*trivia.FallbackQuestion()}, fixedRandom(0)),
		Wallet:    wallet.Rules{MinAmount: 10},
		Rewards:   rewards.NewStore(cat),
		Random:    fixedRandom(wheelIndex),
	})
	authService := auth.NewService(auth.Options{
		MinPhoneDigits: 10,
		CodeLength:     4,
		CodeTTL:        5 * time.Minute,
		MaxAttempts:    3,
	})

	api := &fakeAPI{}
	b := New(api, cfg, manager, authService, cat,
		filters.NewChatFilter(api), middleware.NewRateLimiter(1000, 1000))
	return b, api
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmdLen := len(strings.Fields(text)[0])
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		From: &tgbotapi.User{ID: userID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		},
	}}
}

var devCode = regexp.MustCompile(`Dev code: (\d+)`)

// login проходит оба шага входа через команды.
func login(t *testing.T, b *Bot, api *fakeAPI) {
	t.Helper()
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testUser, "/login +91 98765 43210"))
	m := devCode.FindStringSubmatch(api.lastText())
	require.Len(t, m, 2, "dev mode must echo the code: %q", api.lastText())

	b.handleUpdate(ctx, textUpdate(testUser, "/otp "+m[1]))
	s, ok := b.sessions.Get(testUser)
	require.True(t, ok)
	require.True(t, s.View().Authenticated)
}

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		name  string
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"slash", "/login 9876543210", "login", []string{"9876543210"}, true},
		{"bot mention", "/Start@superfast_bot", "start", nil, true},
		{"bang prefix", "!deposit 100 me@upi", "deposit", []string{"100", "me@upi"}, true},
		{"plain text", "hello", "", nil, false},
		{"bare prefix", "/", "", nil, false},
		{"spaces", "   /home   ", "home", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCmd, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    Action
		wantErr bool
	}{
		{"nav:home", Action{Kind: ActNavigate, Screen: session.Dashboard}, false},
		{"nav:spin", Action{Kind: ActNavigate, Screen: session.Spin}, false},
		{"game:start", Action{Kind: ActGameStart}, false},
		{"game:again", Action{Kind: ActGameStart}, false},
		{"game:answer:2", Action{Kind: ActAnswer, Option: 2}, false},
		{"game:exit", Action{Kind: ActGameExit}, false},
		{"spin", Action{Kind: ActSpin}, false},
		{"redeem:petrol", Action{Kind: ActRedeem, ItemID: "petrol"}, false},
		{"logout", Action{Kind: ActLogout}, false},
		{"nav:casino", Action{}, true},
		{"game:answer:-1", Action{}, true},
		{"game:answer:x", Action{}, true},
		{"game:dance", Action{}, true},
		{"redeem:", Action{}, true},
		{"", Action{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	for _, s := range []session.Screen{session.Dashboard, session.Game, session.Spin, session.Wallet, session.Rewards, session.Profile} {
		a, err := ParseCallback(navData(s))
		require.NoError(t, err)
		assert.Equal(t, s, a.Screen)
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := common.ErrInsufficientBalance
	assert.Contains(t, userMessage(wrapped), "Insufficient balance")
	assert.Contains(t, userMessage(common.ErrInsufficientTickets), "Spin the wheel")
	assert.Contains(t, userMessage(assert.AnError), "Something went wrong")
}

func TestLoginFlow(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testUser, "/start"))
	assert.Contains(t, api.lastText(), "/login")

	b.handleUpdate(ctx, textUpdate(testUser, "/login 123"))
	assert.Contains(t, api.lastText(), "valid mobile number")

	login(t, b, api)

	texts := api.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[len(texts)-2], "Welcome, Player 1")
	assert.Contains(t, texts[len(texts)-2], "₹10")
	assert.Contains(t, texts[len(texts)-2], "5 Tickets")
	assert.Contains(t, api.lastText(), "Hi, Player 👋")

	b.handleUpdate(ctx, textUpdate(testUser, "/login 9876543210"))
	assert.Contains(t, api.lastText(), "already signed in")
}

func TestWrongOTP(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(testUser, "/otp 1234"))
	assert.Contains(t, api.lastText(), "Request a code first")

	b.handleUpdate(ctx, textUpdate(testUser, "/login 9876543210"))
	code := devCode.FindStringSubmatch(api.lastText())[1]
	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}
	b.handleUpdate(ctx, textUpdate(testUser, "/otp "+wrong))
	assert.Contains(t, api.lastText(), "Wrong code")

	s, _ := b.sessions.Get(testUser)
	assert.False(t, s.View().Authenticated)
}

func TestCodeNeverLogged(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(level)

	for _, prefix := range []string{"/otp ", "/code ", ".otp ", "!otp ", "/OTP "} {
		t.Run(prefix, func(t *testing.T) {
			b, api := newTestBot(t, 0)
			ctx := context.Background()

			b.handleUpdate(ctx, textUpdate(testUser, "/login 9876543210"))
			m := devCode.FindStringSubmatch(api.lastText())
			require.Len(t, m, 2)

			hook.Reset()
			raw := prefix + m[1]
			b.handleUpdate(ctx, textUpdate(testUser, raw))

			s, ok := b.sessions.Get(testUser)
			require.True(t, ok)
			assert.True(t, s.View().Authenticated)

			entries := hook.AllEntries()
			require.NotEmpty(t, entries)
			for _, e := range entries {
				assert.NotContains(t, e.Message, raw)
				for k, v := range e.Data {
					assert.NotContains(t, fmt.Sprint(v), raw, "field %s", k)
				}
			}
		})
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()

	for _, cmd := range []string{"/home", "/wallet", "/history", "/deposit 100 me@upi", "/redeem petrol", "/logout"} {
		b.handleUpdate(ctx, textUpdate(testUser, cmd))
		assert.Contains(t, api.lastText(), "sign in", cmd)
	}
}

func TestTriviaRoundViaButtons(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, callbackUpdate(testUser, "nav:game"))
	assert.Contains(t, api.lastText(), "Game Zone")

	b.handleUpdate(ctx, callbackUpdate(testUser, cbGameStart))
	assert.Contains(t, api.lastText(), "largest planet")

	b.handleUpdate(ctx, callbackUpdate(testUser, answerData(2)))
	assert.Contains(t, api.lastText(), "✅ Correct!")

	s, _ := b.sessions.Get(testUser)
	v := s.View()
	assert.Equal(t, int64(11), v.Balance)
	assert.Equal(t, 4, v.Tickets)

	b.handleUpdate(ctx, callbackUpdate(testUser, answerData(0)))
	assert.Equal(t, int64(11), s.View().Balance, "first answer is final")

	b.handleUpdate(ctx, callbackUpdate(testUser, cbGameExit))
	assert.Equal(t, session.Dashboard, s.View().Screen)
}

func TestWrongAnswerShowsCorrectOne(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, textUpdate(testUser, "/game"))
	b.handleUpdate(ctx, callbackUpdate(testUser, cbGameStart))
	b.handleUpdate(ctx, callbackUpdate(testUser, answerData(0)))

	assert.Contains(t, api.lastText(), "❌ Wrong!")
	assert.Contains(t, api.lastText(), "Jupiter")

	s, _ := b.sessions.Get(testUser)
	assert.Equal(t, int64(10), s.View().Balance)
}

func TestSpinViaButton(t *testing.T) {
	b, api := newTestBot(t, 2) // "5 Tickets"
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, callbackUpdate(testUser, cbSpin))
	cb := api.lastCallback()
	assert.True(t, cb.ShowAlert, "spin is only available on the wheel screen")

	b.handleUpdate(ctx, callbackUpdate(testUser, "nav:spin"))
	b.handleUpdate(ctx, callbackUpdate(testUser, cbSpin))

	assert.Equal(t, "5 Tickets", api.lastCallback().Text)
	assert.Contains(t, api.lastText(), "You won 5 Tickets")

	s, _ := b.sessions.Get(testUser)
	assert.Equal(t, 10, s.View().Tickets)
}

func TestRedeemInsufficientBalance(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, callbackUpdate(testUser, "redeem:petrol"))
	cb := api.lastCallback()
	assert.True(t, cb.ShowAlert)
	assert.Contains(t, cb.Text, "Insufficient balance")

	s, _ := b.sessions.Get(testUser)
	assert.Equal(t, int64(10), s.View().Balance)
}

func TestWalletCommands(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, textUpdate(testUser, "/deposit 500 me@upi"))
	assert.Contains(t, api.lastText(), "+₹500")

	b.handleUpdate(ctx, textUpdate(testUser, "/withdraw abc upi me@upi"))
	assert.Contains(t, api.lastText(), "valid amount")

	b.handleUpdate(ctx, textUpdate(testUser, "/withdraw 1000 upi me@upi"))
	assert.Contains(t, api.lastText(), "Insufficient balance")

	b.handleUpdate(ctx, textUpdate(testUser, "/withdraw 100 bank HDFC 1234"))
	assert.Contains(t, api.lastText(), "Withdrawal to Bank (HDFC 1234)")

	b.handleUpdate(ctx, textUpdate(testUser, "/redeem amazon"))
	assert.Contains(t, api.lastText(), "Voucher code: SF-")

	s, _ := b.sessions.Get(testUser)
	assert.Equal(t, int64(10+500-100-200), s.View().Balance)

	b.handleUpdate(ctx, textUpdate(testUser, "/history"))
	assert.Contains(t, api.lastText(), "Redeemed: Amazon Gift Card")
}

func TestLogoutViaButton(t *testing.T) {
	b, api := newTestBot(t, 0)
	ctx := context.Background()
	login(t, b, api)

	b.handleUpdate(ctx, callbackUpdate(testUser, cbLogout))
	assert.Contains(t, api.lastText(), "/login")

	s, _ := b.sessions.Get(testUser)
	assert.False(t, s.View().Authenticated)
	assert.Equal(t, session.Auth, s.View().Screen)
}

func TestGroupMessagesIgnored(t *testing.T) {
	b, api := newTestBot(t, 0)

	upd := textUpdate(testUser, "/start")
	upd.Message.Chat = &tgbotapi.Chat{ID: -100, Type: "group"}
	b.handleUpdate(context.Background(), upd)

	assert.Contains(t, api.lastText(), "private chat")
	_, ok := b.sessions.Get(testUser)
	assert.False(t, ok)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	b, api := newTestBot(t, 0)
	api.updates = make(chan tgbotapi.Update, 1)
	api.updates <- textUpdate(testUser, "/start")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return api.lastText() != "" }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
