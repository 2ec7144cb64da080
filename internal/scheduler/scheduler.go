// Package scheduler runs the periodic fetch-and-compute job on a cron
// expression evaluated in the configured market timezone.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iprahasta12-beep/idx-list/internal/aggregator"
)

// Scheduler wraps the cron runner around the aggregator.
type Scheduler struct {
	Cron *cron.Cron
	Agg  *aggregator.Aggregator
}

// New creates a Scheduler evaluating cron expressions in loc. A run that
// overlaps the previous one is skipped rather than stacked.
func New(loc *time.Location, agg *aggregator.Aggregator) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{Cron: c, Agg: agg}
}

// Register adds the refresh job under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.Agg.Run); err != nil {
		return fmt.Errorf("register refresh job %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}
