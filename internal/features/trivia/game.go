// Package trivia — game.go: автомат состояний раунда.
//
//	Idle → Loading → Answering → Resolved → (Idle при "ещё раз" | выход)
//
// Game не потокобезопасен: его защищает мьютекс владеющей сессии.
package trivia

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"serotonyl.ru/superfast-bot/internal/common"
)

// Game — раунд викторины одной сессии.
type Game struct {
	winAmount int64

	state    State
	round    *round
	finished int // Сколько раундов сыграно до конца
}

type round struct {
	id       string
	question Question
	selected string
	correct  bool
	message  string
	cancel   context.CancelFunc // Отмена фоновой генерации поздравления
}

// NewGame создаёт игру с фиксированным призом за правильный ответ.
func NewGame(winAmount int64) *Game {
	return &Game{winAmount: winAmount}
}

// State — текущее состояние.
func (g *Game) State() State {
	return g.state
}

// RoundsFinished — сколько раундов завершено ответом.
func (g *Game) RoundsFinished() int {
	return g.finished
}

// Begin начинает раунд: Idle/Resolved → Loading.
// charge списывает билет; если он вернул false, раунд не начинается (ErrInsufficientTickets).
// Возвращает ID нового раунда.
func (g *Game) Begin(charge func() bool) (string, error) {
	if g.state == Loading || g.state == Answering {
		return "", common.ErrRoundInProgress
	}
	if !charge() {
		return "", common.ErrInsufficientTickets
	}

	g.cancelTask()
	g.round = &round{id: uuid.NewString()}
	g.state = Loading
	return g.round.id, nil
}

// Load принимает результат сервиса вопросов: Loading → Answering.
//
// Правила:
//   - чужой или устаревший roundID → ErrRoundAbandoned, состояние не меняется
//   - ошибка или nil → Idle и ErrQuestionUnavailable (билет остаётся списанным)
//   - некорректный вопрос заменяется встроенным FallbackQuestion
//
// Второй результат показывает, был ли вопрос заменён.
func (g *Game) Load(roundID string, q *Question, fetchErr error) (bool, error) {
	if !g.isCurrent(roundID) || g.state != Loading {
		return false, common.ErrRoundAbandoned
	}

	if fetchErr != nil || q == nil {
		g.round = nil
		g.state = Idle
		return false, common.ErrQuestionUnavailable
	}

	replaced := false
	if !q.Valid() {
		q = FallbackQuestion()
		replaced = true
	}
	g.round.question = Question{
		Question:      q.Question,
		Options:       slices.Clone(q.Options),
		CorrectAnswer: q.CorrectAnswer,
		Difficulty:    q.Difficulty,
	}
	g.state = Answering
	return replaced, nil
}

// Answer фиксирует выбор: Answering → Resolved.
// Первый выбор окончательный: повторный вызов возвращает прежний результат и first=false.
// Ответ верен при точном совпадении строки с CorrectAnswer.
func (g *Game) Answer(option string) (res Round, first bool, err error) {
	switch g.state {
	case Resolved:
		return g.Snapshot(), false, nil
	case Answering:
	default:
		return Round{}, false, common.ErrNoActiveRound
	}

	if !slices.Contains(g.round.question.Options, option) {
		return Round{}, false, common.ErrUnknownOption
	}

	g.round.selected = option
	g.round.correct = option == g.round.question.CorrectAnswer
	g.state = Resolved
	g.finished++
	return g.Snapshot(), true, nil
}

// AttachTask запоминает функцию отмены фоновой задачи раунда.
// Если раунд уже не текущий, задача отменяется сразу.
func (g *Game) AttachTask(roundID string, cancel context.CancelFunc) {
	if !g.isCurrent(roundID) {
		cancel()
		return
	}
	g.round.cancel = cancel
}

// SetMessage применяет поздравление, только если его раунд всё ещё текущий.
func (g *Game) SetMessage(roundID, message string) bool {
	if !g.isCurrent(roundID) || g.state != Resolved {
		return false
	}
	g.round.message = message
	return true
}

// Reset уничтожает раунд (уход с экрана игры, выход из аккаунта).
func (g *Game) Reset() {
	g.cancelTask()
	g.round = nil
	g.state = Idle
}

// ResetStats обнуляет счётчик раундов (новая сессия).
func (g *Game) ResetStats() {
	g.finished = 0
}

// Snapshot возвращает копию текущего раунда.
func (g *Game) Snapshot() Round {
	if g.round == nil {
		return Round{State: g.state}
	}
	r := Round{
		ID:       g.round.id,
		State:    g.state,
		Question: g.round.question,
		Selected: g.round.selected,
		Correct:  g.round.correct,
		Message:  g.round.message,
	}
	r.Question.Options = slices.Clone(g.round.question.Options)
	if r.Correct {
		r.Prize = g.winAmount
	}
	return r
}

func (g *Game) isCurrent(roundID string) bool {
	return g.round != nil && g.round.id == roundID
}

func (g *Game) cancelTask() {
	if g.round != nil && g.round.cancel != nil {
		g.round.cancel()
		g.round.cancel = nil
	}
}
