// Package bot — errors.go переводит ошибки домена в понятные пользователю тексты.
package bot

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
)

var userMessages = []struct {
	err  error
	text string
}{
	{common.ErrInvalidPhoneNumber, "📱 Please enter a valid mobile number (at least 10 digits)."},
	{common.ErrNoPendingCode, "🔐 Request a code first: /login <mobile number>"},
	{common.ErrInvalidCode, "❌ Wrong code. Please try again."},
	{common.ErrCodeExpired, "⌛ The code has expired. Send /login again."},
	{common.ErrTooManyAttempts, "🚫 Too many wrong codes. Send /login to get a new one."},
	{common.ErrNotAuthenticated, "🔒 Please sign in first: /login <mobile number>"},
	{common.ErrAlreadyAuthenticated, "ℹ️ You are already signed in. Send /logout to switch accounts."},
	{common.ErrInsufficientTickets, "🎟 Not enough tickets! Spin the wheel to win more."},
	{common.ErrQuestionUnavailable, "⚠️ Could not load a question. Your ticket was used, please try again."},
	{common.ErrInsufficientBalance, "💸 Insufficient balance."},
	{common.ErrInvalidAmount, "💰 Please enter a valid amount."},
	{common.ErrMissingPaymentDetails, "🏦 Please provide your payment details."},
	{common.ErrUnknownReward, "🎁 This reward is not available."},
	{common.ErrUnknownScreen, "🤔 Unknown screen."},
	{common.ErrWrongScreen, "🤔 That action is not available here."},
	{common.ErrNoActiveRound, "🎮 No active question. Press Start to play."},
	{common.ErrUnknownOption, "🤔 Unknown answer option."},
	{common.ErrRoundInProgress, "⏳ A round is already in progress."},
	{common.ErrSpinInProgress, "🎡 The wheel is already spinning!"},
}

// userMessage возвращает текст для пользователя.
// Неизвестные ошибки логируются, пользователь видит общий текст.
func userMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	log.WithError(err).Error("Необработанная ошибка")
	return "⚠️ Something went wrong. Please try again."
}
