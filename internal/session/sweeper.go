package session

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"orderbot/pkg/logger"
)

// StartSweeper clears sessions idle for longer than idle every interval.
// The caller shuts the returned scheduler down.
func StartSweeper(m *Memory, idle, interval time.Duration, log *zap.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger.NewGocron(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := m.Sweep(idle); n > 0 {
				log.Info("Idle sessions swept", zap.Int("count", n), zap.Int("remaining", m.Len()))
			}
		}),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.Start()
	return s, nil
}
