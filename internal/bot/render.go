// Package bot — render.go превращает снимок сессии в текст и inline-клавиатуру.
package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
)

const (
	walletHistoryLimit  = 5
	profileHistoryLimit = 10
	dashboardGames      = 6
)

// screen — готовое к отправке сообщение.
type screen struct {
	text     string
	keyboard tgbotapi.InlineKeyboardMarkup
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func homeRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("🏠 Home", navData(session.Dashboard)))
}

// header — заголовок экрана и строка баланса.
func header(v session.View) string {
	return fmt.Sprintf("%s\n💰 %s   🎟 %s\n\n",
		v.Title, common.FormatMoney(v.Balance), common.FormatTickets(v.Tickets))
}

// authScreen — экран входа.
func authScreen() screen {
	var sb strings.Builder
	sb.WriteString("⚡ SUPER FAST\n\n")
	sb.WriteString("Play quick games, win tickets and cash, redeem rewards.\n\n")
	sb.WriteString("To sign in send your mobile number:\n")
	sb.WriteString("/login 9876543210\n\n")
	sb.WriteString("Then confirm with the 4-digit code:\n")
	sb.WriteString("/otp 1234")
	return screen{text: sb.String()}
}

// dashboardScreen — главный экран.
func dashboardScreen(v session.View, cat *catalog.Catalog, winAmount int64) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	sb.WriteString("⭐ Featured: Trivia Quiz\n")
	sb.WriteString(fmt.Sprintf("Entry: 1 Ticket · Prize: %s\n", common.FormatMoney(winAmount)))

	if len(cat.Games) > 0 {
		n := min(dashboardGames, len(cat.Games))
		sb.WriteString("\n🕹 More games:\n")
		for _, g := range cat.Games[:n] {
			sb.WriteString("• " + g + "\n")
		}
		if rest := len(cat.Games) - n; rest > 0 {
			sb.WriteString(fmt.Sprintf("…and %d more coming soon\n", rest))
		}
	}

	return screen{
		text: strings.TrimRight(sb.String(), "\n"),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("🎮 Play Trivia", navData(session.Game))),
			tgbotapi.NewInlineKeyboardRow(button("🎡 Spin & Win", navData(session.Spin))),
			tgbotapi.NewInlineKeyboardRow(
				button("💳 Wallet", navData(session.Wallet)),
				button("🎁 Rewards", navData(session.Rewards)),
				button("👤 Profile", navData(session.Profile)),
			),
		),
	}
}

// gameScreen рисует экран викторины в зависимости от состояния раунда.
func gameScreen(v session.View, winAmount int64) screen {
	r := v.Round
	switch r.State {
	case trivia.Loading:
		return screen{text: header(v) + "⏳ Loading your question..."}
	case trivia.Answering:
		return questionScreen(v, r)
	case trivia.Resolved:
		return resultScreen(v, r)
	}

	var sb strings.Builder
	sb.WriteString(header(v))
	sb.WriteString("🧠 Trivia Quiz\n")
	sb.WriteString(fmt.Sprintf("Entry fee: 1 Ticket. Answer correctly to win %s.\n", common.FormatMoney(winAmount)))

	if v.Tickets == 0 {
		sb.WriteString("\n😕 You have no tickets left. Spin the wheel to win more!")
		return screen{
			text: sb.String(),
			keyboard: keyboard(
				tgbotapi.NewInlineKeyboardRow(button("🎡 Spin & Win", navData(session.Spin))),
				tgbotapi.NewInlineKeyboardRow(button("⬅️ Exit", cbGameExit)),
			),
		}
	}
	return screen{
		text: sb.String(),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("▶️ Start (1 🎟)", cbGameStart)),
			tgbotapi.NewInlineKeyboardRow(button("⬅️ Exit", cbGameExit)),
		),
	}
}

func questionScreen(v session.View, r trivia.Round) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	if r.Question.Difficulty != "" {
		sb.WriteString(fmt.Sprintf("❓ [%s]\n", r.Question.Difficulty))
	}
	sb.WriteString(r.Question.Question)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Question.Options))
	for i, opt := range r.Question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(opt, answerData(i))))
	}
	return screen{text: sb.String(), keyboard: keyboard(rows...)}
}

// checkingScreen показывается между выбором ответа и результатом.
func checkingScreen(v session.View, r trivia.Round) screen {
	return screen{text: fmt.Sprintf("%s%s\n\nYour answer: %s\n⏳ Checking...", header(v), r.Question.Question, r.Selected)}
}

func resultScreen(v session.View, r trivia.Round) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	sb.WriteString(r.Question.Question + "\n\n")
	if r.Correct {
		sb.WriteString(fmt.Sprintf("✅ Correct! %s\n", common.FormatSignedMoney(r.Prize, true)))
		sb.WriteString(r.WinMessage())
	} else {
		sb.WriteString(fmt.Sprintf("❌ Wrong! You chose %s.\n", r.Selected))
		sb.WriteString(fmt.Sprintf("The correct answer is %s.", r.Question.CorrectAnswer))
	}
	return screen{
		text: sb.String(),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("🔁 Play again (1 🎟)", cbGameAgain)),
			tgbotapi.NewInlineKeyboardRow(button("⬅️ Exit", cbGameExit)),
		),
	}
}

// spinScreen — колесо до вращения.
func spinScreen(v session.View, segments []wheel.Segment) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	sb.WriteString("Spin the wheel for free and win tickets or cash!\n\n")
	for i, seg := range segments {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, seg.Label))
	}
	return screen{
		text: strings.TrimRight(sb.String(), "\n"),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("🎡 SPIN", cbSpin)),
			homeRow(),
		),
	}
}

func spinningScreen(v session.View) screen {
	return screen{text: header(v) + "🎡 Spinning..."}
}

// spinResultScreen — результат вращения поверх обновлённого баланса.
func spinResultScreen(v session.View, o wheel.Outcome) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	if o.Segment.IsEmpty() {
		sb.WriteString("😅 " + o.Segment.Label + "! No luck this time.")
	} else {
		sb.WriteString("🎉 You won " + o.Segment.Label + "!")
	}
	return screen{
		text: sb.String(),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("🎡 Spin again", cbSpin)),
			homeRow(),
		),
	}
}

// walletScreen — баланс, быстрые суммы и последние операции.
func walletScreen(v session.View, cat *catalog.Catalog, minAmount int64, history []ledger.Transaction) screen {
	var sb strings.Builder
	sb.WriteString(header(v))

	if len(cat.QuickAmounts) > 0 {
		amounts := make([]string, 0, len(cat.QuickAmounts))
		for _, a := range cat.QuickAmounts {
			amounts = append(amounts, common.FormatMoney(a))
		}
		sb.WriteString("Quick amounts: " + strings.Join(amounts, " · ") + "\n")
	}
	sb.WriteString(fmt.Sprintf("Minimum amount: %s\n\n", common.FormatMoney(minAmount)))
	sb.WriteString("➕ Add money:\n/deposit <amount> <upi-id>\n")
	sb.WriteString("➖ Withdraw:\n/withdraw <amount> upi <upi-id>\n/withdraw <amount> bank <account details>\n\n")
	sb.WriteString(ledger.FormatHistory(history, walletHistoryLimit))

	return screen{text: strings.TrimRight(sb.String(), "\n"), keyboard: keyboard(homeRow())}
}

// rewardsScreen — товары магазина, по кнопке на каждый.
func rewardsScreen(v session.View, items []catalog.Reward) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	if len(items) == 0 {
		sb.WriteString("The store is empty right now.")
		return screen{text: sb.String(), keyboard: keyboard(homeRow())}
	}

	sb.WriteString("Redeem your balance for real rewards:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("%s %s — %s\n", it.Icon, it.Title, common.FormatMoney(it.Cost)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("%s %s", it.Icon, it.Title), redeemData(it.ID)),
		))
	}
	rows = append(rows, homeRow())
	return screen{text: strings.TrimRight(sb.String(), "\n"), keyboard: keyboard(rows...)}
}

// profileScreen — личность, статистика и лента транзакций.
func profileScreen(v session.View, p session.ProfileSummary) screen {
	var sb strings.Builder
	sb.WriteString(header(v))
	sb.WriteString(fmt.Sprintf("👤 %s\n", p.Identity.DisplayName))
	sb.WriteString(fmt.Sprintf("ID: %s\n", p.PlayerID))
	sb.WriteString(fmt.Sprintf("📱 ****%s\n\n", common.LastDigits(p.Identity.PhoneNumber, 4)))
	sb.WriteString(fmt.Sprintf("🏆 Total winnings: %s\n", common.FormatMoney(p.TotalWinnings)))
	sb.WriteString(fmt.Sprintf("🧠 Rounds played: %d\n", p.RoundsPlayed))
	sb.WriteString(fmt.Sprintf("🎡 Spins: %d\n\n", p.Spins))
	sb.WriteString(ledger.FormatHistory(p.History, profileHistoryLimit))

	return screen{
		text: strings.TrimRight(sb.String(), "\n"),
		keyboard: keyboard(
			tgbotapi.NewInlineKeyboardRow(button("🚪 Logout", cbLogout)),
			homeRow(),
		),
	}
}

// hintText — ответ на обычный текст без команды.
func hintText(v session.View) string {
	if !v.Authenticated {
		return "👋 Send /login <mobile number> to sign in."
	}
	return "Use the buttons or /home to open the menu."
}
