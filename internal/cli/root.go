// Package cli — служебная утилита playctl: симуляция колеса,
// проверка каталога и генерация хеша мастер-кода.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "playctl",
	Short: "Operator tools for the SUPER FAST bot",
	Long: `playctl helps operators check the bot's configuration offline:
simulate the reward wheel, validate a catalogue file before deploying it,
and produce the argon2id hash for AUTH_MASTER_CODE_HASH.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs")
}

// Execute запускает корневую команду.
func Execute() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
