package notify

import (
	"context"

	"rentalhub/internal/models"

	"github.com/rs/zerolog"
)

// LogSender writes notifications to the structured log. Used when no
// delivery channel is configured and in tests.
type LogSender struct {
	logger *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, kind string, payload RentalEventPayload, recipient *models.User) error {
	s.logger.Info().
		Str("kind", kind).
		Int64("rental_id", payload.RentalID).
		Int64("recipient_id", recipient.ID).
		Str("recipient_email", recipient.Email).
		Str("status", payload.Status).
		Msg("notification")
	return nil
}
