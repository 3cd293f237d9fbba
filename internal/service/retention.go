package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

// UserLister enumerates users for the retention sweep.
type UserLister interface {
	FindAllUsers(ctx context.Context) ([]models.User, error)
}

// RetentionSweeper periodically deletes statistics older than each user's
// configured cleaning interval. Users without an interval are skipped.
type RetentionSweeper struct {
	service  *LogsService
	users    UserLister
	interval time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewRetentionSweeper(service *LogsService, users UserLister, interval time.Duration, logger *logging.Logger) *RetentionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionSweeper{
		service:  service,
		users:    users,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the sweep loop.
func (s *RetentionSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("retention sweeper already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("retention sweeper starting", "interval", s.interval.String())

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop gracefully stops the sweep loop.
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *RetentionSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one retention pass over all users.
func (s *RetentionSweeper) Sweep(ctx context.Context) {
	users, err := s.users.FindAllUsers(ctx)
	if err != nil {
		s.logger.Warn("retention sweep skipped", logging.Error(err))
		return
	}

	for i := range users {
		user := &users[i]
		days := user.Settings.CleaningIntervalDays
		if days <= 0 {
			continue
		}
		cutoff := time.Now().AddDate(0, 0, -days)

		ids, err := s.service.DeleteAllStatisticsByUserBefore(identity.With(ctx, user), cutoff)
		if err != nil {
			s.logger.Warn("retention sweep failed for user",
				logging.Username(user.Username), logging.Error(err))
			continue
		}
		if len(ids) > 0 {
			s.logger.Info("retention sweep removed statistics",
				logging.Username(user.Username), "removed", len(ids))
		}
	}
}
