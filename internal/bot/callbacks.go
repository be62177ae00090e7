// Package bot — callbacks.go разбирает данные inline-кнопок и выполняет действия.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/session"
	"serotonyl.ru/superfast-bot/internal/features/trivia"
)

// Данные кнопок без параметров.
const (
	cbGameStart = "game:start"
	cbGameAgain = "game:again"
	cbGameExit  = "game:exit"
	cbSpin      = "spin"
	cbLogout    = "logout"
)

// ActionKind — что делает кнопка.
type ActionKind int

const (
	ActNavigate ActionKind = iota
	ActGameStart
	ActAnswer
	ActGameExit
	ActSpin
	ActRedeem
	ActLogout
)

// Action — разобранные данные кнопки.
type Action struct {
	Kind   ActionKind
	Screen session.Screen // для ActNavigate
	Option int            // для ActAnswer
	ItemID string         // для ActRedeem
}

func navData(s session.Screen) string { return "nav:" + s.String() }

func answerData(i int) string { return fmt.Sprintf("game:answer:%d", i) }

func redeemData(id string) string { return "redeem:" + id }

// ParseCallback разбирает callback data: "nav:<screen>", "game:start", "game:again",
// "game:answer:<i>", "game:exit", "spin", "redeem:<id>", "logout".
func ParseCallback(data string) (Action, error) {
	switch data {
	case cbGameStart, cbGameAgain:
		return Action{Kind: ActGameStart}, nil
	case cbGameExit:
		return Action{Kind: ActGameExit}, nil
	case cbSpin:
		return Action{Kind: ActSpin}, nil
	case cbLogout:
		return Action{Kind: ActLogout}, nil
	}

	prefix, rest, ok := strings.Cut(data, ":")
	if !ok || rest == "" {
		return Action{}, fmt.Errorf("неизвестная кнопка %q", data)
	}
	switch prefix {
	case "nav":
		s, err := session.ParseScreen(rest)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActNavigate, Screen: s}, nil
	case "redeem":
		return Action{Kind: ActRedeem, ItemID: rest}, nil
	case "game":
		idx, found := strings.CutPrefix(rest, "answer:")
		if !found {
			break
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 {
			return Action{}, fmt.Errorf("некорректный вариант %q", data)
		}
		return Action{Kind: ActAnswer, Option: i}, nil
	}
	return Action{}, fmt.Errorf("неизвестная кнопка %q", data)
}

// routeCallback выполняет действие кнопки и обновляет сообщение с экраном.
func (b *Bot) routeCallback(ctx context.Context, q *tgbotapi.CallbackQuery, action Action) {
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	userID := q.From.ID
	sess := b.sessions.GetOrCreate(userID)

	log.WithFields(log.Fields{
		"user_id": userID,
		"action":  action.Kind,
	}).Debug("routing callback")

	switch action.Kind {
	case ActNavigate:
		if err := sess.Navigate(action.Screen); err != nil {
			b.failCallback(q, sess, err)
			return
		}
		b.answerCallback(q.ID, "")
		b.editScreen(chatID, messageID, b.render(sess))

	case ActGameStart:
		b.startRound(ctx, q, sess)

	case ActAnswer:
		b.answer(ctx, q, sess, action.Option)

	case ActGameExit:
		if err := sess.ExitGame(); err != nil {
			b.failCallback(q, sess, err)
			return
		}
		b.answerCallback(q.ID, "")
		b.editScreen(chatID, messageID, b.render(sess))

	case ActSpin:
		b.spin(ctx, q, sess)

	case ActRedeem:
		red, tx, err := sess.Redeem(ctx, action.ItemID)
		if err != nil {
			b.failCallback(q, sess, err)
			return
		}
		b.answerCallback(q.ID, "✅ Redeemed!")
		b.sendMessage(chatID, fmt.Sprintf("🎁 %s redeemed!\nVoucher code: %s\n%s",
			red.Reward.Title, red.Voucher, common.FormatSignedMoney(tx.Amount, false)))
		b.editScreen(chatID, messageID, b.render(sess))

	case ActLogout:
		if err := b.logout(userID, sess); err != nil {
			b.failCallback(q, sess, err)
			return
		}
		b.answerCallback(q.ID, "👋 Signed out")
		b.editScreen(chatID, messageID, authScreen())
	}
}

// startRound списывает билет, ждёт вопрос и показывает его.
func (b *Bot) startRound(ctx context.Context, q *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID, messageID := q.Message.Chat.ID, q.Message.MessageID

	v := sess.View()
	if v.Authenticated && v.Screen == session.Game && v.Tickets > 0 && !v.Round.HasQuestion() {
		b.editScreen(chatID, messageID, screen{text: header(v) + "⏳ Loading your question..."})
	}

	round, err := sess.StartRound(ctx)
	if errors.Is(err, common.ErrRoundAbandoned) {
		// Пользователь уже ушёл с экрана игры, экран перерисован другим нажатием
		b.answerCallback(q.ID, "")
		return
	}
	if err != nil {
		b.failCallback(q, sess, err)
		return
	}
	b.answerCallback(q.ID, "")
	b.editScreen(chatID, messageID, questionScreen(sess.View(), round))
}

// answer фиксирует выбор, выдерживает паузу и показывает результат с поздравлением,
// если оно успело прийти.
func (b *Bot) answer(ctx context.Context, q *tgbotapi.CallbackQuery, sess *session.Session, option int) {
	chatID, messageID := q.Message.Chat.ID, q.Message.MessageID

	round, err := sess.Answer(ctx, option)
	if err != nil {
		b.failCallback(q, sess, err)
		return
	}
	b.answerCallback(q.ID, "")
	b.editScreen(chatID, messageID, checkingScreen(sess.View(), round))

	if b.resultDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.resultDelay):
		}
	}

	v := sess.View()
	if v.Screen != session.Game || v.Round.ID != round.ID || v.Round.State != trivia.Resolved {
		return
	}
	b.editScreen(chatID, messageID, resultScreen(v, v.Round))
}

// spin крутит колесо. Кнопка "крутится", пока колесо не остановится.
func (b *Bot) spin(ctx context.Context, q *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID, messageID := q.Message.Chat.ID, q.Message.MessageID

	v := sess.View()
	if v.Spinning {
		b.answerAlert(q.ID, userMessage(common.ErrSpinInProgress))
		return
	}
	if v.Authenticated && v.Screen == session.Spin {
		b.editScreen(chatID, messageID, spinningScreen(v))
	}

	outcome, err := sess.Spin(ctx)
	if err != nil {
		b.failCallback(q, sess, err)
		return
	}
	b.answerCallback(q.ID, outcome.Segment.Label)
	b.editScreen(chatID, messageID, spinResultScreen(sess.View(), outcome))
}

// failCallback показывает ошибку всплывающим окном и перерисовывает экран.
func (b *Bot) failCallback(q *tgbotapi.CallbackQuery, sess *session.Session, err error) {
	log.WithError(err).WithField("user_id", q.From.ID).Debug("Действие отклонено")
	b.answerAlert(q.ID, userMessage(err))
	if errors.Is(err, common.ErrSpinInProgress) {
		return
	}
	b.editScreen(q.Message.Chat.ID, q.Message.MessageID, b.render(sess))
}
