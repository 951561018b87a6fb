package serviceimpl

import (
	"context"
	"fmt"
	"time"

	"clipstream/domain/repositories"
	"clipstream/pkg/logger"
)

// StuckJobSweeper fails jobs that have sat in processing past the timeout.
// A crashed worker leaves its job in processing forever; without the sweeper
// the owning video would be stuck in processing too, invisible to retry.
type StuckJobSweeper struct {
	jobRepo repositories.JobRepository
	timeout time.Duration
}

func NewStuckJobSweeper(jobRepo repositories.JobRepository, timeout time.Duration) *StuckJobSweeper {
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}
	return &StuckJobSweeper{jobRepo: jobRepo, timeout: timeout}
}

// Interval returns how often the sweeper should run. A tenth of the timeout
// keeps detection latency small relative to the timeout itself.
func (s *StuckJobSweeper) Interval() time.Duration {
	interval := s.timeout / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// Sweep fails every job whose run started before now-timeout. Failing goes
// through the ledger, so the usual draft revert and retryability apply.
func (s *StuckJobSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.timeout)
	jobs, err := s.jobRepo.GetStuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stuck jobs: %w", err)
	}

	swept := 0
	for _, job := range jobs {
		message := fmt.Sprintf("processing exceeded %s, presumed dead", s.timeout)
		if err := s.jobRepo.Fail(ctx, job.ID, message); err != nil {
			logger.ErrorContext(ctx, "Failed to sweep stuck job", "job_id", job.ID, "error", err)
			continue
		}
		logger.WarnContext(ctx, "Stuck job failed by sweeper",
			"job_id", job.ID,
			"video_id", job.VideoID,
			"started_at", job.StartedAt,
		)
		swept++
	}

	return swept, nil
}
