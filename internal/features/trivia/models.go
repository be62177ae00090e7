// Package trivia — мини-игра викторины: один вопрос, один ответ, приз за правильный ответ.
// models.go описывает вопрос, состояния раунда и снимок раунда для отрисовки.
package trivia

import (
	"fmt"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
)

// Difficulty — сложность вопроса.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Question — вопрос викторины.
type Question struct {
	Question      string
	Options       []string
	CorrectAnswer string
	Difficulty    Difficulty
}

// Valid — минимум 2 варианта, правильный ответ среди них ровно один раз.
func (q *Question) Valid() bool {
	return q != nil && catalog.ValidateQuestion(q.Question, q.Options, q.CorrectAnswer) == nil
}

// FallbackQuestion — встроенный вопрос на случай сбоя внешнего сервиса.
func FallbackQuestion() *Question {
	return &Question{
		Question:      "Which is the largest planet in our solar system?",
		Options:       []string{"Earth", "Mars", "Jupiter", "Saturn"},
		CorrectAnswer: "Jupiter",
		Difficulty:    Easy,
	}
}

// FromCatalog переводит вопросы каталога в вопросы викторины.
func FromCatalog(qs []catalog.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, Question{
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    Difficulty(q.Difficulty),
		})
	}
	return out
}

// State — состояние раунда.
type State int

const (
	Idle      State = iota // Раунда нет
	Loading                // Билет списан, ждём вопрос
	Answering              // Вопрос на экране, ждём выбор
	Resolved               // Ответ выбран, результат показан
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Answering:
		return "answering"
	case Resolved:
		return "resolved"
	default:
		return "idle"
	}
}

// Тексты сообщений о выигрыше.
const (
	DefaultResultText = "Great job!"
	EmptyMessageText  = "Congratulations! You won!"
)

// FallbackWinMessage — шаблон, если генератор сообщений не ответил.
func FallbackWinMessage(amount int64) string {
	return fmt.Sprintf("Wow! You won %s!", common.FormatMoney(amount))
}

// Round — снимок текущего раунда (копия, безопасно отдавать наружу).
type Round struct {
	ID       string
	State    State
	Question Question
	Selected string // Пусто, пока ответ не выбран
	Correct  bool
	Prize    int64
	Message  string // Поздравление, приходит асинхронно
}

// HasQuestion — вопрос уже загружен.
func (r Round) HasQuestion() bool {
	return r.State == Answering || r.State == Resolved
}

// WinMessage — текст для экрана результата.
func (r Round) WinMessage() string {
	if r.Message == "" {
		return DefaultResultText
	}
	return r.Message
}
