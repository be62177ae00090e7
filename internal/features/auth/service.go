// Package auth — вход по номеру телефона с имитацией OTP.
// Код генерируется, хранится только в виде хеша и "доставляется" вызывающему:
// настоящей отправки SMS нет.
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/common"
)

// Options — настройки входа.
type Options struct {
	MinPhoneDigits int
	CodeLength     int
	CodeTTL        time.Duration
	MaxAttempts    int
	MasterCodeHash string // Пусто = мастер-кода нет
}

// Challenge — выданный код подтверждения.
type Challenge struct {
	Phone     string
	Code      string // Открытый код, только для имитации доставки
	ExpiresAt time.Time
}

type pending struct {
	phone     string
	codeHash  string
	expiresAt time.Time
	attempts  int
}

// Service хранит ожидающие подтверждения коды (in-memory, по Telegram user ID).
type Service struct {
	opts Options

	mu         sync.Mutex
	challenges map[int64]*pending
	now        func() time.Time
}

// NewService создаёт сервис входа.
func NewService(opts Options) *Service {
	return &Service{
		opts:       opts,
		challenges: make(map[int64]*pending),
		now:        time.Now,
	}
}

// NormalizePhone оставляет только цифры и проверяет минимальную длину.
//
// Примеры:
//
//	NormalizePhone("+91 98765-43210", 10) → "919876543210"
//	NormalizePhone("12345", 10)           → ErrInvalidPhoneNumber
func NormalizePhone(raw string, minDigits int) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(digits) < minDigits {
		return "", fmt.Errorf("%q has %d digits, need %d: %w", raw, len(digits), minDigits, common.ErrInvalidPhoneNumber)
	}
	return digits, nil
}

// RequestCode выдаёт новый код для номера. Предыдущий код пользователя аннулируется.
func (s *Service) RequestCode(userID int64, rawPhone string) (Challenge, error) {
	phone, err := NormalizePhone(rawPhone, s.opts.MinPhoneDigits)
	if err != nil {
		return Challenge{}, err
	}

	code, err := generateCode(s.opts.CodeLength)
	if err != nil {
		return Challenge{}, err
	}
	hash, err := HashSecret(code, CodeParams)
	if err != nil {
		return Challenge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expires := s.now().Add(s.opts.CodeTTL)
	s.challenges[userID] = &pending{phone: phone, codeHash: hash, expiresAt: expires}

	log.WithFields(log.Fields{
		"user_id": userID,
		"phone":   "****" + common.LastDigits(phone, 4),
	}).Info("Код подтверждения выдан")

	return Challenge{Phone: phone, Code: code, ExpiresAt: expires}, nil
}

// VerifyCode проверяет код и возвращает подтверждённый номер.
//
// Ошибки:
//   - ErrNoPendingCode — код не запрашивали
//   - ErrCodeExpired — код истёк (запрос удаляется)
//   - ErrInvalidCode — неверный код, попытка засчитана
//   - ErrTooManyAttempts — попытки исчерпаны, нужен новый код
func (s *Service) VerifyCode(userID int64, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.challenges[userID]
	if !ok {
		return "", common.ErrNoPendingCode
	}
	if s.now().After(p.expiresAt) {
		delete(s.challenges, userID)
		return "", common.ErrCodeExpired
	}
	if p.attempts >= s.opts.MaxAttempts {
		return "", common.ErrTooManyAttempts
	}

	code = strings.TrimSpace(code)
	if VerifySecret(code, p.codeHash) || s.matchesMaster(code) {
		delete(s.challenges, userID)
		return p.phone, nil
	}

	p.attempts++
	log.WithFields(log.Fields{
		"user_id":  userID,
		"attempts": p.attempts,
	}).Warn("Неверный код подтверждения")

	if p.attempts >= s.opts.MaxAttempts {
		return "", common.ErrTooManyAttempts
	}
	return "", common.ErrInvalidCode
}

// Cancel удаляет ожидающий код пользователя.
func (s *Service) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, userID)
}

// PurgeExpired удаляет истёкшие коды. Вызывается кроном.
func (s *Service) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, p := range s.challenges {
		if now.After(p.expiresAt) {
			delete(s.challenges, id)
			n++
		}
	}
	return n
}

// Pending — сколько кодов ожидает подтверждения.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

func (s *Service) matchesMaster(code string) bool {
	return s.opts.MasterCodeHash != "" && VerifySecret(code, s.opts.MasterCodeHash)
}

// generateCode — криптографически случайный код из n цифр (с ведущими нулями).
func generateCode(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
