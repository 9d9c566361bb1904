package notify

import (
	"context"
	"fmt"

	"rentalhub/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender delivers rental notifications to the recipient's
// linked Telegram chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

func NewTelegramSender(token string, logger *zerolog.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram sender authorized")
	return &TelegramSender{bot: bot, logger: logger}, nil
}

func (s *TelegramSender) Send(ctx context.Context, kind string, payload RentalEventPayload, recipient *models.User) error {
	if recipient.TelegramChatID == 0 {
		return fmt.Errorf("user %d has no telegram chat linked", recipient.ID)
	}

	msg := tgbotapi.NewMessage(recipient.TelegramChatID, formatMessage(kind, payload))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	s.logger.Debug().
		Str("kind", kind).
		Int64("rental_id", payload.RentalID).
		Int64("recipient_id", recipient.ID).
		Msg("notification delivered")
	return nil
}

func formatMessage(kind string, p RentalEventPayload) string {
	period := fmt.Sprintf("%s to %s (%d days)",
		p.StartDate.Format(models.DateLayout),
		p.EndDate.Format(models.DateLayout),
		p.NumberOfDays)

	switch kind {
	case KindRequestCreated:
		return fmt.Sprintf("New rental request #%d\n%s\n%s\nTotal: %s\nRespond in your pending list.",
			p.RentalID, p.ProductName, period, p.TotalPrice)
	case KindAccepted:
		return fmt.Sprintf("Your rental request #%d for %s was accepted.\n%s\nTotal: %s",
			p.RentalID, p.ProductName, period, p.TotalPrice)
	case KindRejected:
		return fmt.Sprintf("Your rental request #%d for %s was declined.", p.RentalID, p.ProductName)
	default:
		return fmt.Sprintf("Rental #%d update: %s", p.RentalID, p.Status)
	}
}
