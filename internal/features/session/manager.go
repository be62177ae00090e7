// Package session — manager.go: сессии всех пользователей бота.
// Сессии живут только в памяти процесса и вытесняются после простоя.
package session

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/metrics"
)

// Manager выдаёт сессию по Telegram user ID.
type Manager struct {
	settings Settings
	deps     Deps

	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewManager создаёт менеджер с общими правилами и зависимостями.
func NewManager(settings Settings, deps Deps) *Manager {
	return &Manager{
		settings: settings,
		deps:     deps,
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Get возвращает существующую сессию.
func (m *Manager) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// GetOrCreate возвращает сессию пользователя, создавая её на экране Auth.
func (m *Manager) GetOrCreate(userID int64) *Session {
	if s, ok := m.Get(userID); ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Повторная проверка: пока ждали блокировку, сессию мог создать другой апдейт
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := New(userID, m.settings, m.deps)
	s.now = m.now
	s.lastActive = m.now()
	m.sessions[userID] = s
	return s
}

// Remove закрывает и удаляет сессию.
func (m *Manager) Remove(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// EvictIdle удаляет сессии без действий дольше ttl. Возвращает количество удалённых.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		metrics.SessionsEvicted.Add(float64(len(evicted)))
		log.WithField("count", len(evicted)).Info("Неактивные сессии удалены")
	}
	return len(evicted)
}

// Count — сколько сессий в памяти.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
