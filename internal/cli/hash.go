package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/superfast-bot/internal/features/auth"
)

func init() {
	rootCmd.AddCommand(hashCodeCmd)
}

var hashCodeCmd = &cobra.Command{
	Use:   "hash-code CODE",
	Short: "Print the argon2id hash for AUTH_MASTER_CODE_HASH",
	Long: `Hash a master sign-in code. Testers can then sign in with this code
for any phone number. Put the output into .env as AUTH_MASTER_CODE_HASH.`,
	Args: cobra.ExactArgs(1),
	RunE: runHashCode,
}

func runHashCode(cmd *cobra.Command, args []string) error {
	hash, err := auth.HashSecret(args[0], auth.MasterParams)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
