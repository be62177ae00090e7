// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: вытеснение простаивающих сессий,
// очистку просроченных кодов входа и лимитеров частоты.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/metrics"
)

// Расписание задач.
const (
	evictSpec   = "@every 1m"
	purgeSpec   = "@every 1m"
	limiterSpec = "@every 10m"
)

// SessionStore — хранилище сессий в памяти.
type SessionStore interface {
	EvictIdle(ttl time.Duration) int
	Count() int
}

// CodeStore — ожидающие подтверждения коды входа.
type CodeStore interface {
	PurgeExpired() int
}

// LimiterStore — лимитеры частоты по пользователям.
type LimiterStore interface {
	Cleanup(idle time.Duration) int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionStore
	codes    CodeStore
	limiters LimiterStore
	idleTTL  time.Duration
}

// NewScheduler создаёт планировщик в часовом поясе приложения.
// limiters может быть nil.
func NewScheduler(sessions SessionStore, codes CodeStore, limiters LimiterStore, idleTTL time.Duration) *Scheduler {
	c := cron.New(cron.WithLocation(common.Location()))

	return &Scheduler{
		cron:     c,
		sessions: sessions,
		codes:    codes,
		limiters: limiters,
		idleTTL:  idleTTL,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		fn   func()
	}{
		{evictSpec, s.EvictIdleSessions},
		{purgeSpec, s.PurgeExpiredCodes},
		{limiterSpec, s.CleanupLimiters},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, s.guard(ctx, j.fn)); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"idle_ttl": s.idleTTL,
		"local":    common.LocalTime().Format("15:04:05 MST"),
	}).Info("Планировщик задач запущен")
	return nil
}

// guard не запускает задачу после остановки приложения.
func (s *Scheduler) guard(ctx context.Context, fn func()) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		fn()
	}
}

// EvictIdleSessions вытесняет сессии, простаивающие дольше idleTTL,
// и обновляет метрику активных сессий.
func (s *Scheduler) EvictIdleSessions() {
	if s.idleTTL > 0 {
		if n := s.sessions.EvictIdle(s.idleTTL); n > 0 {
			log.WithField("evicted", n).Info("[CRON] Простаивающие сессии вытеснены")
		}
	}
	metrics.ActiveSessions.Set(float64(s.sessions.Count()))
}

// PurgeExpiredCodes удаляет просроченные коды входа.
func (s *Scheduler) PurgeExpiredCodes() {
	if n := s.codes.PurgeExpired(); n > 0 {
		log.WithField("purged", n).Debug("[CRON] Просроченные коды удалены")
	}
}

// CleanupLimiters забывает лимитеры пользователей, которые давно молчат.
func (s *Scheduler) CleanupLimiters() {
	if s.limiters == nil {
		return
	}
	idle := s.idleTTL
	if idle <= 0 {
		idle = time.Hour
	}
	if n := s.limiters.Cleanup(idle); n > 0 {
		log.WithField("removed", n).Debug("[CRON] Лимитеры очищены")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
