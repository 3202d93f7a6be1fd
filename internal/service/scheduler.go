package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based background jobs.
type SchedulerService struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewSchedulerService(logger *slog.Logger) *SchedulerService {
	return &SchedulerService{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// ScheduleInterval registers job to run every interval. Runs never overlap:
// a run still going when the next is due causes that tick to be skipped.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func(ctx context.Context) error) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("scheduler: interval for %s must be at least 1s", name)
	}

	spec := fmt.Sprintf("@every %s", interval.Truncate(time.Second))
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.run(name, job)
	}))
	id, err := s.cron.AddJob(spec, wrapped)
	if err != nil {
		return 0, fmt.Errorf("scheduler: adding %s: %w", name, err)
	}
	return id, nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// run executes one job with a timeout and logs the outcome.
func (s *SchedulerService) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			slog.String("job", name),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("scheduled job finished",
		slog.String("job", name),
		slog.Duration("duration", time.Since(start)),
	)
}
