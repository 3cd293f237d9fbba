package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/logsift-systems/logsift/internal/cache"
	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/repository"
)

var (
	cleanupUserHash string
	cleanupDays     int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete a user's statistics older than the given number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCleanup(cmd.Context())
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupUserHash, "user", "", "owner key of the user to clean up (required)")
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "delete statistics created more than this many days ago")
	_ = cleanupCmd.MarkFlagRequired("user")
}

func runCleanup(ctx context.Context) error {
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.TTL())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisCache.Close()
	statsCache := cache.NewStatisticsCache(redisCache, repo, logger)

	user, err := repo.FindUserByHash(ctx, cleanupUserHash)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -cleanupDays)
	ids, err := statsCache.DeleteOlderThan(identity.With(ctx, user), user.Hash, cutoff)
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d statistics entit(ies) for %s older than %s\n",
		len(ids), user.Username, cutoff.Format(time.RFC3339))
	return nil
}
