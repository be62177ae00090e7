// Package main — playctl, утилита оператора SUPER FAST.
package main

import "serotonyl.ru/superfast-bot/internal/cli"

func main() {
	cli.Execute()
}
