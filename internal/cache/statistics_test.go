package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisCacheFromClient(client, time.Hour)
}

type fakeStatsRepo struct {
	entities map[string][]models.StatisticsEntity
	finds    int
	deleted  []string
}

func (f *fakeStatsRepo) FindStatisticsByDataQueryOrID(ctx context.Context, key string) ([]models.StatisticsEntity, error) {
	f.finds++
	return f.entities[key], nil
}

func (f *fakeStatsRepo) FindAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]models.StatisticsEntity, error) {
	var out []models.StatisticsEntity
	for _, entities := range f.entities {
		for _, e := range entities {
			if e.UserKey == userKey && e.Created.Before(before) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (f *fakeStatsRepo) DeleteAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]string, error) {
	var ids []string
	for key, entities := range f.entities {
		kept := entities[:0]
		for _, e := range entities {
			if e.UserKey == userKey && e.Created.Before(before) {
				ids = append(ids, e.ID)
				continue
			}
			kept = append(kept, e)
		}
		f.entities[key] = kept
	}
	f.deleted = append(f.deleted, ids...)
	return ids, nil
}

func entity(id, userKey string, created time.Time) models.StatisticsEntity {
	return models.StatisticsEntity{
		ID:      id,
		Created: created,
		Title:   "stats " + id,
		UserKey: userKey,
		Stats:   map[string]any{"all.records.count": float64(3)},
	}
}

func TestFindMissPopulatesFastTier(t *testing.T) {
	_, fast := setupTestRedis(t)
	repo := &fakeStatsRepo{entities: map[string][]models.StatisticsEntity{
		"key-1": {entity("key-1", "hash-alice", time.Now())},
	}}
	sc := NewStatisticsCache(fast, repo, logging.Default())
	ctx := context.Background()

	found, err := sc.Find(ctx, "key-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, repo.finds)

	// Second read is served from the fast tier.
	found, err = sc.Find(ctx, "key-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, repo.finds)
}

func TestFindNotFound(t *testing.T) {
	_, fast := setupTestRedis(t)
	repo := &fakeStatsRepo{entities: map[string][]models.StatisticsEntity{}}
	sc := NewStatisticsCache(fast, repo, logging.Default())

	_, err := sc.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrStatisticsNotFound)
}

func TestFindDegradesWhenFastTierDown(t *testing.T) {
	mr, fast := setupTestRedis(t)
	repo := &fakeStatsRepo{entities: map[string][]models.StatisticsEntity{
		"key-1": {entity("key-1", "hash-alice", time.Now())},
	}}
	sc := NewStatisticsCache(fast, repo, logging.Default())

	mr.Close()

	found, err := sc.Find(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDeleteOlderThanClearsBothTiers(t *testing.T) {
	mr, fast := setupTestRedis(t)
	old := entity("old-1", "hash-alice", time.Now().Add(-48*time.Hour))
	fresh := entity("new-1", "hash-alice", time.Now())
	repo := &fakeStatsRepo{entities: map[string][]models.StatisticsEntity{
		"old-1": {old},
		"new-1": {fresh},
	}}
	sc := NewStatisticsCache(fast, repo, logging.Default())
	ctx := context.Background()

	// Warm the fast tier.
	_, err := sc.Find(ctx, "old-1")
	require.NoError(t, err)
	_, err = sc.Find(ctx, "new-1")
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())

	ids, err := sc.DeleteOlderThan(ctx, "hash-alice", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"old-1"}, ids)

	// The whole statistics namespace is swept, not just the deleted key.
	assert.Empty(t, mr.Keys())

	_, err = sc.Find(ctx, "old-1")
	assert.ErrorIs(t, err, ErrStatisticsNotFound)

	found, err := sc.Find(ctx, "new-1")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDeleteOlderThanScopedToUser(t *testing.T) {
	_, fast := setupTestRedis(t)
	alice := entity("a-1", "hash-alice", time.Now().Add(-48*time.Hour))
	bob := entity("b-1", "hash-bob", time.Now().Add(-48*time.Hour))
	repo := &fakeStatsRepo{entities: map[string][]models.StatisticsEntity{
		"a-1": {alice},
		"b-1": {bob},
	}}
	sc := NewStatisticsCache(fast, repo, logging.Default())
	ctx := context.Background()

	ids, err := sc.DeleteOlderThan(ctx, "hash-alice", time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, ids)

	found, err := sc.Find(ctx, "b-1")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestRedisCacheNamespacing(t *testing.T) {
	mr, fast := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, fast.Set(ctx, "key-1", []string{"v"}))
	require.True(t, mr.Exists("statistics:key-1"))

	var out []string
	require.NoError(t, fast.Get(ctx, "key-1", &out))
	assert.Equal(t, []string{"v"}, out)

	assert.ErrorIs(t, fast.Get(ctx, "absent", &out), ErrCacheMiss)

	require.NoError(t, fast.DeleteByPrefix(ctx, ""))
	assert.False(t, mr.Exists("statistics:key-1"))
}
