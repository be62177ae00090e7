// Package wheel — stats.go копит статистику выпадений.
// Нужна для проверки равномерности (playctl simulate-spins) и профиля.
package wheel

import "sync"

// Stats — счётчики по сегментам и сумма выданных наград.
type Stats struct {
	mu      sync.RWMutex
	counts  []int
	spins   int
	tickets int64 // Сколько всего билетов выдано
	cash    int64 // Сколько всего денег выдано
}

// NewStats создаёт статистику для колеса из n сегментов.
func NewStats(n int) *Stats {
	return &Stats{counts: make([]int, n)}
}

// Record учитывает один результат.
func (s *Stats) Record(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Index >= 0 && o.Index < len(s.counts) {
		s.counts[o.Index]++
	}
	s.spins++
	switch o.Segment.Kind {
	case Ticket:
		s.tickets += int64(o.Segment.Quantity)
	case Cash:
		s.cash += int64(o.Segment.Quantity)
	}
}

// Spins — всего вращений.
func (s *Stats) Spins() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spins
}

// Totals возвращает (билеты, деньги), выданные за всё время.
func (s *Stats) Totals() (tickets, cash int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets, s.cash
}

// Frequencies возвращает долю каждого сегмента. Пустой срез, если вращений не было.
func (s *Stats) Frequencies() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.spins == 0 {
		return nil
	}
	out := make([]float64, len(s.counts))
	for i, c := range s.counts {
		out[i] = float64(c) / float64(s.spins)
	}
	return out
}
