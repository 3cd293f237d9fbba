package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

type fakeUserLister struct {
	users []models.User
	err   error
}

func (f *fakeUserLister) FindAllUsers(ctx context.Context) ([]models.User, error) {
	return f.users, f.err
}

func TestSweepDeletesPerUserRetention(t *testing.T) {
	ts := newTestService(t)
	now := time.Now()
	ts.repo.entities = []models.StatisticsEntity{
		{ID: "a-ancient", UserKey: "hash-a", Created: now.AddDate(0, 0, -10)},
		{ID: "a-recent", UserKey: "hash-a", Created: now.AddDate(0, 0, -2)},
		{ID: "b-ancient", UserKey: "hash-b", Created: now.AddDate(0, 0, -10)},
		{ID: "c-ancient", UserKey: "hash-c", Created: now.AddDate(0, 0, -100)},
	}
	lister := &fakeUserLister{users: []models.User{
		{Username: "alice", Hash: "hash-a", Settings: models.UserSettings{CleaningIntervalDays: 7}},
		{Username: "bob", Hash: "hash-b", Settings: models.UserSettings{CleaningIntervalDays: 30}},
		// no retention configured, never swept
		{Username: "carol", Hash: "hash-c"},
	}}

	sweeper := NewRetentionSweeper(ts.svc, lister, time.Hour, logging.Default())
	sweeper.Sweep(context.Background())

	remaining := func(id string) bool {
		found, err := ts.repo.FindStatisticsByDataQueryOrID(context.Background(), id)
		require.NoError(t, err)
		return len(found) > 0
	}
	assert.False(t, remaining("a-ancient"))
	assert.True(t, remaining("a-recent"))
	assert.True(t, remaining("b-ancient"))
	assert.True(t, remaining("c-ancient"))
}

func TestSweepSkippedWhenUserListFails(t *testing.T) {
	ts := newTestService(t)
	ts.repo.entities = []models.StatisticsEntity{
		{ID: "a-ancient", UserKey: "hash-a", Created: time.Now().AddDate(0, 0, -10)},
	}
	lister := &fakeUserLister{err: errors.New("db down")}

	sweeper := NewRetentionSweeper(ts.svc, lister, time.Hour, logging.Default())
	sweeper.Sweep(context.Background())

	found, err := ts.repo.FindStatisticsByDataQueryOrID(context.Background(), "a-ancient")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSweeperStartStop(t *testing.T) {
	ts := newTestService(t)
	sweeper := NewRetentionSweeper(ts.svc, &fakeUserLister{}, time.Hour, logging.Default())

	require.NoError(t, sweeper.Start(context.Background()))
	assert.Error(t, sweeper.Start(context.Background()))

	sweeper.Stop()
	// Stop is idempotent.
	sweeper.Stop()

	require.NoError(t, sweeper.Start(context.Background()))
	sweeper.Stop()
}
