package cli

import (
	"github.com/spf13/cobra"

	"github.com/iprahasta12-beep/idx-list/internal/aggregator"
)

var (
	fetchDays     int
	fetchIntraday bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch latest candles and recompute indicators once",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, st, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		agg := aggregator.New(st, newFetcher(cfg), cfg)
		return agg.FetchAndCompute(fetchDays, fetchIntraday)
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchDays, "days", 7, "days of history to refresh")
	fetchCmd.Flags().BoolVar(&fetchIntraday, "intraday", true, "include hourly intraday snapshots")
	rootCmd.AddCommand(fetchCmd)
}
