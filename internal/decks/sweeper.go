package decks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"venturesight-backend/internal/shared/telemetry"
)

// Sweeper periodically force-fails analyses that have been running
// past the configured deadline, so a crashed worker cannot leave a
// deck in analyzing forever.
type Sweeper struct {
	Svc      *Service
	Schedule string
}

const defaultSweepSchedule = "*/5 * * * *"

// Start registers the sweep on a new cron scheduler and starts it.
// The caller owns the returned scheduler and should Stop it on
// shutdown.
func (s *Sweeper) Start() (*cron.Cron, error) {
	schedule := s.Schedule
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, s.sweep); err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := s.Svc.ReapStale(ctx)
	if err != nil {
		telemetry.Error("sweeper.failed", map[string]any{"error": err.Error()})
		return
	}
	if len(ids) > 0 {
		telemetry.Info("sweeper.reaped", map[string]any{"count": len(ids)})
	}
}
