package cli

import (
	"github.com/spf13/cobra"

	"github.com/iprahasta12-beep/idx-list/internal/aggregator"
)

var backfillDays int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill historical daily candles and recompute indicators",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, st, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		agg := aggregator.New(st, newFetcher(cfg), cfg)
		return agg.Backfill(backfillDays)
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillDays, "days", 120, "number of days to backfill")
	rootCmd.AddCommand(backfillCmd)
}
