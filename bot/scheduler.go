package bot

import (
	"context"
	"fmt"
	"time"

	"kunena-discord/metrics"
	"kunena-discord/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// scheduledRunTimeout bounds one scheduled pass.
const scheduledRunTimeout = time.Minute

// RecentChecker is the part of the scanner the scheduler drives.
type RecentChecker interface {
	CheckRecent(ctx context.Context, window time.Duration, limit int) int
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler runs the recency check on a cron spec. Overlapping runs are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler registers the check but does not start it.
func NewScheduler(cfg models.ScheduleConfig, checker RecentChecker, log zerolog.Logger) (*Scheduler, error) {
	clog := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	_, err := c.AddFunc(cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
		defer cancel()

		metrics.DetectionRunsTotal.WithLabelValues("schedule").Inc()
		if n := checker.CheckRecent(ctx, cfg.Window, cfg.Limit); n > 0 {
			log.Info().Int("dispatched", n).Msg("scheduled check dispatched posts")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not set up cron job %q: %w", cfg.Spec, err)
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running check to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}
