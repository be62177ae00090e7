// Package bot — commands.go обрабатывает текстовые команды.
package bot

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/wallet"
)

const helpText = "⚡ SUPER FAST commands\n\n" +
	"/login <mobile> — request a sign-in code\n" +
	"/otp <code> — confirm the code\n" +
	"/home — main menu\n" +
	"/game — trivia quiz\n" +
	"/spin — spin & win\n" +
	"/wallet — balance and transactions\n" +
	"/deposit <amount> <upi-id>\n" +
	"/withdraw <amount> upi|bank <details>\n" +
	"/rewards — rewards store\n" +
	"/redeem <item-id>\n" +
	"/profile — your profile\n" +
	"/history — all transactions\n" +
	"/logout — sign out"

// Команды, которые просто открывают экран.
var screenCommands = map[string]session.Screen{
	"home":    session.Dashboard,
	"menu":    session.Dashboard,
	"game":    session.Game,
	"play":    session.Game,
	"spin":    session.Spin,
	"wallet":  session.Wallet,
	"rewards": session.Rewards,
	"store":   session.Rewards,
	"profile": session.Profile,
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"user_id": userID,
	}).Debug("routing command")

	sess := b.sessions.GetOrCreate(userID)

	if target, ok := screenCommands[cmd]; ok {
		if err := sess.Navigate(target); err != nil {
			b.sendMessage(chatID, userMessage(err))
			return
		}
		b.sendScreen(chatID, b.render(sess))
		return
	}

	switch cmd {
	case "start":
		b.sendScreen(chatID, b.render(sess))

	case "help":
		b.sendMessage(chatID, helpText)

	case "login":
		b.handleLogin(chatID, userID, sess, args)

	case "otp", "code":
		b.handleOTP(ctx, chatID, userID, sess, args)

	case "deposit":
		b.handleDeposit(ctx, chatID, sess, args)

	case "withdraw":
		b.handleWithdraw(ctx, chatID, sess, args)

	case "redeem":
		if len(args) != 1 {
			b.sendMessage(chatID, "Usage: /redeem <item-id>\nSee /rewards for the list.")
			return
		}
		red, tx, err := sess.Redeem(ctx, strings.ToLower(args[0]))
		if err != nil {
			b.sendMessage(chatID, userMessage(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🎁 %s redeemed!\nVoucher code: %s\n%s",
			red.Reward.Title, red.Voucher, common.FormatSignedMoney(tx.Amount, false)))

	case "history":
		if !sess.View().Authenticated {
			b.sendMessage(chatID, userMessage(common.ErrNotAuthenticated))
			return
		}
		b.sendMessage(chatID, ledger.FormatHistory(sess.History(), 0))

	case "logout":
		if err := b.logout(userID, sess); err != nil {
			b.sendMessage(chatID, userMessage(err))
			return
		}
		b.sendMessage(chatID, "👋 You have been signed out.")
		b.sendScreen(chatID, authScreen())

	default:
		b.sendMessage(chatID, "🤔 Unknown command. Send /help for the list.")
	}
}

// handleLogin — шаг 1: номер телефона, выдача кода.
func (b *Bot) handleLogin(chatID, userID int64, sess *session.Session, args []string) {
	if sess.View().Authenticated {
		b.sendMessage(chatID, userMessage(common.ErrAlreadyAuthenticated))
		return
	}
	if len(args) == 0 {
		b.sendMessage(chatID, "Usage: /login <mobile number>\nExample: /login 9876543210")
		return
	}

	ch, err := b.auth.RequestCode(userID, strings.Join(args, ""))
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}

	text := fmt.Sprintf("📨 We sent a %d-digit code to ****%s.\nIt is valid for %s.\nSend /otp <code> to sign in.",
		len(ch.Code), common.LastDigits(ch.Phone, 4), b.cfg.AuthCodeTTL)
	if b.cfg.IsDevelopment() {
		// Доставка SMS имитируется: в dev-режиме показываем код прямо в чате
		text += "\n\n🔐 Dev code: " + ch.Code
	}
	b.sendMessage(chatID, text)
}

// handleOTP — шаг 2: проверка кода и вход.
func (b *Bot) handleOTP(ctx context.Context, chatID, userID int64, sess *session.Session, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: /otp <code>")
		return
	}
	phone, err := b.auth.VerifyCode(userID, args[0])
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}

	id, err := sess.Login(ctx, phone)
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}

	v := sess.View()
	b.sendMessage(chatID, fmt.Sprintf("✅ Welcome, %s!\nYou have %s and %s.",
		id.DisplayName, common.FormatMoney(v.Balance), common.FormatTickets(v.Tickets)))
	b.sendScreen(chatID, b.render(sess))
}

// handleDeposit — /deposit <amount> <upi-id>.
func (b *Bot) handleDeposit(ctx context.Context, chatID int64, sess *session.Session, args []string) {
	if !sess.View().Authenticated {
		b.sendMessage(chatID, userMessage(common.ErrNotAuthenticated))
		return
	}
	if len(args) < 1 {
		b.sendMessage(chatID, "Usage: /deposit <amount> <upi-id>")
		return
	}
	amount, err := wallet.ParseAmount(args[0])
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}

	b.sendMessage(chatID, "⏳ Processing payment...")
	tx, err := sess.Deposit(ctx, amount, strings.Join(args[1:], " "))
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Deposit successful: %s\nBalance: %s",
		common.FormatSignedMoney(tx.Amount, true), common.FormatMoney(sess.View().Balance)))
}

// handleWithdraw — /withdraw <amount> upi|bank <details>.
func (b *Bot) handleWithdraw(ctx context.Context, chatID int64, sess *session.Session, args []string) {
	const usage = "Usage: /withdraw <amount> upi <upi-id>\n       /withdraw <amount> bank <account details>"
	if !sess.View().Authenticated {
		b.sendMessage(chatID, userMessage(common.ErrNotAuthenticated))
		return
	}
	if len(args) < 2 {
		b.sendMessage(chatID, usage)
		return
	}
	amount, err := wallet.ParseAmount(args[0])
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}
	method, ok := wallet.ParseMethod(args[1])
	if !ok {
		b.sendMessage(chatID, usage)
		return
	}

	b.sendMessage(chatID, "⏳ Processing withdrawal...")
	tx, err := sess.Withdraw(ctx, amount, method, strings.Join(args[2:], " "))
	if err != nil {
		b.sendMessage(chatID, userMessage(err))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Withdrawal requested: %s\n%s\nBalance: %s",
		common.FormatSignedMoney(tx.Amount, false), tx.Description, common.FormatMoney(sess.View().Balance)))
}

// logout завершает сессию и отменяет неподтверждённый код.
func (b *Bot) logout(userID int64, sess *session.Session) error {
	b.auth.Cancel(userID)
	return sess.Logout()
}

// render рисует текущий экран сессии.
func (b *Bot) render(sess *session.Session) screen {
	v := sess.View()
	if !v.Authenticated {
		return authScreen()
	}

	switch v.Screen {
	case session.Game:
		return gameScreen(v, b.cfg.EconomyGameWinAmount)
	case session.Spin:
		return spinScreen(v, sess.Segments())
	case session.Wallet:
		return walletScreen(v, b.catalog, b.cfg.WalletMinAmount, sess.History())
	case session.Rewards:
		return rewardsScreen(v, b.catalog.Rewards)
	case session.Profile:
		p, err := sess.Profile()
		if err != nil {
			return authScreen()
		}
		return profileScreen(v, p)
	default:
		return dashboardScreen(v, b.catalog, b.cfg.EconomyGameWinAmount)
	}
}
