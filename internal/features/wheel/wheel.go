// Package wheel — wheel.go: выбор сегмента и однопоточное вращение.
package wheel

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"serotonyl.ru/superfast-bot/internal/common"
)

// fullTurns — сколько полных оборотов делает колесо за одно вращение.
const fullTurns = 5

// Randomizer — источник случайных индексов. *rand.Rand из math/rand/v2 подходит напрямую.
type Randomizer interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// Wheel — колесо одного пользователя. Пока идёт вращение, второе не начинается.
type Wheel struct {
	segments []Segment
	rng      Randomizer
	duration time.Duration

	mu       sync.Mutex
	spinning bool
	rotation float64 // Текущий угол, только растёт
}

// New создаёт колесо. Если rng == nil, берётся глобальный генератор math/rand/v2.
func New(segments []Segment, rng Randomizer, duration time.Duration) *Wheel {
	if len(segments) == 0 {
		segments = DefaultSegments
	}
	if rng == nil {
		rng = globalRandom{}
	}
	return &Wheel{segments: segments, rng: rng, duration: duration}
}

// Segments возвращает копию каталога.
func (w *Wheel) Segments() []Segment {
	out := make([]Segment, len(w.segments))
	copy(out, w.segments)
	return out
}

// Spinning — идёт ли сейчас вращение.
func (w *Wheel) Spinning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spinning
}

// Spin крутит колесо: выбирает сегмент сразу, затем ждёт окончания анимации.
// Параллельный вызов во время вращения получает ErrSpinInProgress.
// Если ctx отменён до конца анимации, результат не возвращается.
func (w *Wheel) Spin(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.spinning {
		w.mu.Unlock()
		return Outcome{}, common.ErrSpinInProgress
	}
	w.spinning = true
	outcome := w.drawLocked()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.spinning = false
		w.mu.Unlock()
	}()

	if w.duration > 0 {
		timer := time.NewTimer(w.duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}
	return outcome, nil
}

// Draw выбирает сегмент без ожидания и без блокировки вращения.
// Используется симуляцией в playctl.
func (w *Wheel) Draw() Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawLocked()
}

func (w *Wheel) drawLocked() Outcome {
	idx := w.rng.IntN(len(w.segments))
	w.rotation = TargetRotation(w.rotation, idx, len(w.segments))
	return Outcome{Index: idx, Segment: w.segments[idx], Rotation: w.rotation}
}

// TargetRotation считает угол, при котором центр сегмента idx окажется под указателем.
// Угол всегда больше prev минимум на fullTurns оборотов.
func TargetRotation(prev float64, idx, n int) float64 {
	slice := 360.0 / float64(n)
	centre := float64(idx)*slice + slice/2
	base := prev - math.Mod(prev, 360)
	return base + fullTurns*360 + (360 - centre)
}

// SegmentAt — обратная операция: какой сегмент под указателем при угле rotation.
func SegmentAt(rotation float64, n int) int {
	slice := 360.0 / float64(n)
	pointer := math.Mod(360-math.Mod(rotation, 360), 360)
	return int(pointer/slice) % n
}
