// Package tickets хранит счётчик билетов сессии.
// Билет — входная валюта для одного раунда викторины, отдельная от баланса.
package tickets

import "sync"

// Direction — направление изменения счётчика.
type Direction int

const (
	Add    Direction = iota // Начисление (колесо, бонусы)
	Remove                  // Списание (вход в раунд)
)

func (d Direction) String() string {
	if d == Remove {
		return "remove"
	}
	return "add"
}

// Store — неотрицательный счётчик билетов.
type Store struct {
	mu    sync.Mutex
	count int
}

// NewStore создаёт счётчик с начальным запасом билетов.
func NewStore(grant int) *Store {
	if grant < 0 {
		grant = 0
	}
	return &Store{count: grant}
}

// Adjust меняет счётчик и возвращает новое значение.
//
// Правила:
//   - Add: count + delta
//   - Remove: max(0, count - delta), перерасход молча обрезается
//   - delta <= 0 ничего не меняет
func (s *Store) Adjust(delta int, dir Direction) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta <= 0 {
		return s.count
	}

	switch dir {
	case Add:
		s.count += delta
	case Remove:
		s.count = max(0, s.count-delta)
	}
	return s.count
}

// TryRemove списывает delta билетов, только если их хватает.
// Проверка и списание атомарны: два параллельных вызова не уведут счётчик в минус.
func (s *Store) TryRemove(delta int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta <= 0 || s.count < delta {
		return s.count, false
	}
	s.count -= delta
	return s.count, true
}

// Count возвращает текущее количество билетов.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Reset возвращает счётчик к стартовому запасу (вход/выход).
func (s *Store) Reset(grant int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = max(0, grant)
}
