//go:build ignore

// generate_hash.go — утилита для генерации Argon2id-хеша мастер-кода входа.
// Запуск: go run scripts/generate_hash.go 2468
//
// Результат вставьте в .env как AUTH_MASTER_CODE_HASH.
// То же самое делает `playctl hash-code`.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/superfast-bot/internal/features/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <код>")
		os.Exit(1)
	}

	hash, err := auth.HashSecret(os.Args[1], auth.MasterParams)
	if err != nil {
		fmt.Printf("Ошибка генерации хеша: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Хеш мастер-кода (вставьте в .env как AUTH_MASTER_CODE_HASH):")
	fmt.Println(hash)
}
