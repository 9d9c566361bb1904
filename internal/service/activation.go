package service

import (
	"context"
	"fmt"
	"time"
)

// StartActivationSweep schedules the daily activation run. It fires
// once immediately (covering restarts after the scheduled hour) and
// then every day at the configured local time, until ctx is done.
func (s *RentalService) StartActivationSweep(ctx context.Context, at string) {
	go func() {
		hour, minute := 0, 5
		if at != "" {
			if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
				s.logger.Error().Err(err).Str("sweep_time", at).Msg("invalid sweep time format")
				return
			}
		}

		if _, err := s.ActivateDueRentals(ctx); err != nil {
			s.logger.Error().Err(err).Msg("activation sweep failed")
		}

		timer := time.NewTimer(timeUntilNext(s.now(), hour, minute))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if _, err := s.ActivateDueRentals(ctx); err != nil {
					s.logger.Error().Err(err).Msg("activation sweep failed")
				}
				timer.Reset(timeUntilNext(s.now(), hour, minute))
			}
		}
	}()
}

func timeUntilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
