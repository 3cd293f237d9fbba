package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

func newTestExecutor(workers int) *Executor {
	return NewExecutor(workers, 8, logging.Default())
}

func TestSubmitAndWait(t *testing.T) {
	e := newTestExecutor(2)
	defer e.Close()

	ran := false
	handle, err := e.Submit(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, handle.Key())

	require.NoError(t, handle.Wait())
	assert.True(t, ran)
}

func TestWaitReturnsTaskError(t *testing.T) {
	e := newTestExecutor(1)
	defer e.Close()

	wantErr := errors.New("index failed")
	handle, err := e.Submit(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	require.NoError(t, err)

	assert.ErrorIs(t, handle.Wait(), wantErr)
}

func TestPanicBecomesTerminalError(t *testing.T) {
	e := newTestExecutor(1)
	defer e.Close()

	handle, err := e.Submit(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	err = handle.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task panic")

	// The worker survives the panic and keeps serving.
	handle, err = e.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, handle.Wait())
}

func TestSubmittedContextReachesTask(t *testing.T) {
	e := newTestExecutor(4)
	defer e.Close()

	// Each task sees exactly the user bound to the context it was
	// submitted with, regardless of worker interleaving.
	users := []*models.User{
		{Username: "alice", Hash: "hash-alice"},
		{Username: "bob", Hash: "hash-bob"},
		{Username: "carol", Hash: "hash-carol"},
	}

	handles := make([]*Handle, 0, len(users)*10)
	for i := 0; i < 10; i++ {
		for _, user := range users {
			want := user.Hash
			ctx := identity.With(context.Background(), user)
			handle, err := e.Submit(ctx, func(ctx context.Context) error {
				key, err := identity.Key(ctx)
				if err != nil {
					return err
				}
				if key != want {
					return errors.New("identity leaked between tasks")
				}
				return nil
			})
			require.NoError(t, err)
			handles = append(handles, handle)
		}
	}

	for _, handle := range handles {
		assert.NoError(t, handle.Wait())
	}
}

func TestCloseDrainsQueuedTasks(t *testing.T) {
	e := newTestExecutor(2)

	var done atomic.Int32
	for i := 0; i < 16; i++ {
		_, err := e.Submit(context.Background(), func(ctx context.Context) error {
			done.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	e.Close()
	assert.Equal(t, int32(16), done.Load())

	_, err := e.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}
