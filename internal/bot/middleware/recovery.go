package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/superfast-bot/internal/metrics"
)

// RecoverFromPanic вызывается через defer в обработчике апдейта.
// Паника в одном апдейте не должна ронять весь бот.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		metrics.HandlerPanics.Inc()
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике, восстановлено")
	}
}
