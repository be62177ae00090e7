// Package trivia — supplier.go: внешние возможности раунда.
// Источник вопросов и генератор поздравлений — чёрные ящики,
// их сбой никогда не ломает состояние раунда.
package trivia

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
)

// QuestionSupplier выдаёт вопрос для нового раунда.
// (nil, nil) — сервис ответил, но вопроса нет; это тоже ErrQuestionUnavailable.
type QuestionSupplier interface {
	FetchQuestion(ctx context.Context) (*Question, error)
}

// MessageGenerator пишет короткое поздравление с выигрышем.
// Реализации обязаны сами подставлять запасной текст при сбое.
type MessageGenerator interface {
	GenerateWinMessage(ctx context.Context, amount int64) string
}

// Randomizer — источник случайных индексов.
type Randomizer interface {
	IntN(n int) int
}

// OfflineBank выдаёт случайный вопрос из каталога. Работает без сети.
type OfflineBank struct {
	mu        sync.Mutex
	questions []Question
	rng       Randomizer
}

// NewOfflineBank создаёт банк. Некорректные вопросы отбрасываются.
func NewOfflineBank(questions []Question, rng Randomizer) *OfflineBank {
	valid := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Valid() {
			valid = append(valid, q)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &OfflineBank{questions: valid, rng: rng}
}

// FetchQuestion — случайный вопрос банка или FallbackQuestion, если банк пуст.
func (b *OfflineBank) FetchQuestion(ctx context.Context) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.questions) == 0 {
		return FallbackQuestion(), nil
	}
	q := b.questions[b.rng.IntN(len(b.questions))]
	q.Options = slices.Clone(q.Options)
	return &q, nil
}

// Len — размер банка.
func (b *OfflineBank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions)
}

// StaticMessages — генератор без внешнего сервиса, всегда шаблонный текст.
type StaticMessages struct{}

func (StaticMessages) GenerateWinMessage(_ context.Context, amount int64) string {
	return FallbackWinMessage(amount)
}
