package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/notify"
	"github.com/logsift-systems/logsift/internal/repository"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast [message]",
	Short: "Send a message to every user with a configured Telegram chat",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBroadcast(cmd.Context(), strings.Join(args, " "))
	},
}

func runBroadcast(ctx context.Context, message string) error {
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	if cfg.Telegram.BotURL == "" {
		return fmt.Errorf("telegram.bot_url is not configured")
	}

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotURL, cfg.Telegram.Timeout())
	broadcaster := notify.NewBroadcastNotifier(repo, notifier, logger)

	sent, err := broadcaster.Broadcast(ctx, message)
	if err != nil {
		return err
	}
	fmt.Printf("delivered to %d user(s)\n", sent)
	return nil
}
