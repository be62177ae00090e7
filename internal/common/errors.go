// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения (см. bot.userMessage).
package common

import "errors"

// Ошибки экономики (баланс, билеты, кошелёк)
var (
	// ErrInsufficientBalance — списание больше текущего баланса
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount — сумма не число, не положительная или ниже минимума
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientTickets — не хватает билетов на раунд
	ErrInsufficientTickets = errors.New("insufficient tickets")
	// ErrMissingPaymentDetails — не указан UPI или банковские реквизиты
	ErrMissingPaymentDetails = errors.New("missing payment details")
	// ErrUnknownReward — такого товара нет в каталоге
	ErrUnknownReward = errors.New("unknown reward")
)

// Ошибки авторизации
var (
	// ErrInvalidPhoneNumber — меньше минимального количества цифр
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrNotAuthenticated   = errors.New("not authenticated")
	// ErrAlreadyAuthenticated — повторный вход без выхода
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrNoPendingCode — код не запрашивали (или он уже использован)
	ErrNoPendingCode = errors.New("no pending verification code")
	ErrInvalidCode   = errors.New("invalid verification code")
	ErrCodeExpired   = errors.New("verification code expired")
	// ErrTooManyAttempts — лимит попыток ввода кода исчерпан
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Ошибки навигации и игр
var (
	ErrUnknownScreen = errors.New("unknown screen")
	// ErrWrongScreen — действие недоступно на текущем экране
	ErrWrongScreen = errors.New("action not available on this screen")
	// ErrQuestionUnavailable — сервис вопросов не ответил вообще
	ErrQuestionUnavailable = errors.New("question unavailable")
	ErrNoActiveRound       = errors.New("no active round")
	// ErrRoundInProgress — раунд уже идёт, новый начать нельзя
	ErrRoundInProgress = errors.New("round in progress")
	ErrUnknownOption   = errors.New("unknown answer option")
	// ErrRoundAbandoned — вопрос пришёл, когда пользователь уже ушёл из игры
	ErrRoundAbandoned = errors.New("round abandoned")
	// ErrSpinInProgress — колесо ещё крутится
	ErrSpinInProgress = errors.New("spin in progress")
)
