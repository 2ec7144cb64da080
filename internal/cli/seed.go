package cli

import (
	"log"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize storage and verify the ticker list is readable",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, st, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		tickers, err := cfg.LoadTickers()
		if err != nil {
			return err
		}
		log.Printf("[INFO] seed completed: storage=%s tickers=%d", cfg.Storage, len(tickers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
