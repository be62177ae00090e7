package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/superfast-bot/internal/features/catalog"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)

	catalogValidateCmd.Flags().StringP("path", "p", "", "Catalogue YAML file (empty = embedded default)")
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the rewards/games/questions catalogue",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a catalogue file",
	Long:  `Parse a catalogue YAML file with the same rules the bot applies at startup (CATALOG_PATH).`,
	Args:  cobra.NoArgs,
	RunE:  runCatalogValidate,
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")

	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	source := path
	if source == "" {
		source = "embedded"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalogue OK (%s)\n", source)
	fmt.Fprintf(out, "  quick amounts: %v\n", c.QuickAmounts)
	fmt.Fprintf(out, "  rewards:       %d\n", len(c.Rewards))
	fmt.Fprintf(out, "  games:         %d\n", len(c.Games))
	fmt.Fprintf(out, "  questions:     %d\n", len(c.Questions))
	return nil
}
