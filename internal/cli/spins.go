package cli

import (
	"fmt"
	"math/rand/v2"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/wheel"
)

func init() {
	rootCmd.AddCommand(simulateSpinsCmd)

	simulateSpinsCmd.Flags().Int("n", 10000, "Number of spins to simulate")
	simulateSpinsCmd.Flags().Uint64("seed", 0, "Random seed (0 = random)")
}

var simulateSpinsCmd = &cobra.Command{
	Use:   "simulate-spins",
	Short: "Simulate the reward wheel and print segment frequencies",
	Long: `Draw N outcomes from the default wheel without animation and print how
often each segment came up, plus the total tickets and cash paid out.
Every segment should land close to 1/8 of the time.`,
	Args: cobra.NoArgs,
	RunE: runSimulateSpins,
}

func runSimulateSpins(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("n")
	seed, _ := cmd.Flags().GetUint64("seed")
	if n <= 0 {
		return fmt.Errorf("--n must be positive, got %d", n)
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	segments := wheel.DefaultSegments
	w := wheel.New(segments, rand.New(rand.NewPCG(seed, seed)), 0)
	stats := wheel.NewStats(len(segments))
	for i := 0; i < n; i++ {
		stats.Record(w.Draw())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Spins: %s (seed %d)\n\n", common.FormatNumber(int64(n)), seed)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSEGMENT\tFREQUENCY\tEXPECTED")
	expected := 1 / float64(len(segments))
	for i, f := range stats.Frequencies() {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\n", i+1, segments[i].Label, f, expected)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	tickets, cash := stats.Totals()
	fmt.Fprintf(out, "\nTickets paid: %s\nCash paid: %s\n", common.FormatNumber(tickets), common.FormatMoney(cash))
	return nil
}
