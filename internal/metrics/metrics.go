// Package metrics — Prometheus-метрики бота.
// Все коллекторы регистрируются через promauto в стандартном реестре.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "superfast"

// ─── Сессии ─────────────────────────────────────────────────────────────────

// ActiveSessions — сколько сессий сейчас в памяти (обновляется кроном).
var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "active",
	Help:      "Sessions currently held in memory.",
})

var Logins = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "logins_total",
	Help:      "Successful logins.",
})

var Logouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "logouts_total",
	Help:      "Explicit logouts.",
})

// SessionsEvicted — сессии, удалённые по простою.
var SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "session",
	Name:      "evicted_total",
	Help:      "Sessions evicted after the idle TTL.",
})

// ─── Экономика ──────────────────────────────────────────────────────────────

// Transactions — записи в журнал по направлению (credit/debit).
var Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "transactions_total",
	Help:      "Ledger transactions recorded, by kind.",
}, []string{"kind"})

var TransactionAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "amount_total",
	Help:      "Sum of ledger transaction amounts, by kind.",
}, []string{"kind"})

var TicketsAdjusted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "tickets",
	Name:      "adjusted_total",
	Help:      "Tickets added or removed, by direction.",
}, []string{"direction"})

// ─── Игры ───────────────────────────────────────────────────────────────────

// TriviaRounds — исходы раундов: won, lost, unavailable, abandoned.
var TriviaRounds = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "trivia",
	Name:      "rounds_total",
	Help:      "Trivia rounds by outcome.",
}, []string{"outcome"})

// StaleResults — асинхронные результаты, отброшенные из-за смены раунда.
var StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "trivia",
	Name:      "stale_results_total",
	Help:      "Async results discarded because their round was no longer active.",
}, []string{"source"})

var CapabilityFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "trivia",
	Name:      "fallbacks_total",
	Help:      "External capability calls that degraded to a fallback value.",
}, []string{"capability"})

var WheelSpins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "wheel",
	Name:      "spins_total",
	Help:      "Wheel spins by landed segment label.",
}, []string{"segment"})

// ─── Бот ────────────────────────────────────────────────────────────────────

var Updates = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bot",
	Name:      "updates_total",
	Help:      "Telegram updates handled, by type.",
}, []string{"type"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bot",
	Name:      "rate_limited_total",
	Help:      "Updates dropped by the per-user rate limiter.",
})

var HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bot",
	Name:      "handler_panics_total",
	Help:      "Panics recovered in update handlers.",
})
