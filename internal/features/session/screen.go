// Package session — контроллер сессии: личность, журнал, билеты и текущий экран.
// screen.go описывает экраны и их заголовки.
package session

import (
	"fmt"
	"strings"

	"serotonyl.ru/superfast-bot/internal/common"
)

// Screen — активный экран. Ровно один в каждый момент.
type Screen int

const (
	Auth Screen = iota // Единственный экран без авторизации
	Dashboard
	Game
	Spin
	Wallet
	Rewards
	Profile
)

var screenNames = map[Screen]string{
	Auth:      "auth",
	Dashboard: "home",
	Game:      "game",
	Spin:      "spin",
	Wallet:    "wallet",
	Rewards:   "rewards",
	Profile:   "profile",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// ParseScreen — по имени из callback-данных или команды.
func ParseScreen(name string) (Screen, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "dashboard" {
		return Dashboard, nil
	}
	for s, n := range screenNames {
		if n == name {
			return s, nil
		}
	}
	return Auth, fmt.Errorf("%q: %w", name, common.ErrUnknownScreen)
}

// Title — заголовок шапки экрана.
func Title(s Screen, displayName string) string {
	switch s {
	case Game:
		return "Game Zone 🎮"
	case Wallet:
		return "My Wallet 💳"
	case Rewards:
		return "Rewards Store 🎁"
	case Profile:
		return "My Profile 👤"
	case Spin:
		return "Spin & Win 🎡"
	case Dashboard:
		if first := common.FirstName(displayName); first != "" {
			return fmt.Sprintf("Hi, %s 👋", first)
		}
	}
	return "SUPER FAST"
}
