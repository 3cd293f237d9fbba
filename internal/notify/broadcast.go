package notify

import (
	"context"
	"fmt"

	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

// UserDirectory lists the users reachable by notification.
type UserDirectory interface {
	FindUsersWithTelegramID(ctx context.Context) ([]models.User, error)
}

// BroadcastNotifier fans a message out to every reachable user.
type BroadcastNotifier struct {
	directory UserDirectory
	notifier  Notifier
	logger    *logging.Logger
}

func NewBroadcastNotifier(directory UserDirectory, notifier Notifier, logger *logging.Logger) *BroadcastNotifier {
	return &BroadcastNotifier{directory: directory, notifier: notifier, logger: logger}
}

// Broadcast delivers the message to each user in turn. A failed delivery
// is logged and skipped; the remaining users still receive the message.
// The returned count is the number of successful deliveries.
func (b *BroadcastNotifier) Broadcast(ctx context.Context, message string) (int, error) {
	users, err := b.directory.FindUsersWithTelegramID(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	sent := 0
	for _, user := range users {
		if err := b.notifier.Notify(ctx, message, user.Settings.TelegramID); err != nil {
			b.logger.Warn("broadcast delivery failed",
				logging.Username(user.Username),
				logging.RecipientID(user.Settings.TelegramID),
				logging.Error(err),
			)
			continue
		}
		sent++
	}

	b.logger.Info("broadcast complete", "recipients", len(users), "delivered", sent)
	return sent, nil
}
