package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iprahasta12-beep/idx-list/internal/aggregator"
	"github.com/iprahasta12-beep/idx-list/internal/scheduler"
	"github.com/iprahasta12-beep/idx-list/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API, optionally with the periodic refresh scheduler",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, st, err := setup()
		if err != nil {
			return err
		}
		defer st.Close()

		agg := aggregator.New(st, newFetcher(cfg), cfg)

		if cfg.Schedule.Enabled {
			sched := scheduler.New(cfg.Location(), agg)
			if err := sched.Register(cfg.Schedule.FetchCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
		} else {
			log.Println("[INFO] scheduler disabled")
		}

		if os.Getenv("RUN_ON_START") == "true" {
			log.Println("[INFO] RUN_ON_START enabled, refreshing now")
			go agg.Run()
		}

		srv := web.New(st, cfg)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe(cfg.Server.Addr) }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Printf("[INFO] %s received, shutting down", sig)
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
