package application

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// sweepBatchSize caps how many expired confirmations one sweep processes.
const sweepBatchSize = 100

// AutoConfirmSweeper periodically completes bookings whose client
// confirmation deadline has elapsed, attributed to the system actor.
type AutoConfirmSweeper struct {
	service  *BookingService
	interval time.Duration
	logger   *zap.Logger
}

// NewAutoConfirmSweeper creates a sweeper running at the given interval.
func NewAutoConfirmSweeper(service *BookingService, interval time.Duration, logger *zap.Logger) *AutoConfirmSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AutoConfirmSweeper{service: service, interval: interval, logger: logger}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *AutoConfirmSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			confirmed, err := s.service.AutoConfirmExpired(ctx, sweepBatchSize)
			if err != nil {
				s.logger.Error("auto-confirm sweep failed", zap.Error(err))
				continue
			}
			if confirmed > 0 {
				s.logger.Info("auto-confirmed expired bookings", zap.Int("count", confirmed))
			}
		}
	}
}
