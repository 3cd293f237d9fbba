package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/logging"
)

func TestPublisherWithoutConnectionIsNoop(t *testing.T) {
	p := NewPublisher(nil, logging.Default())
	defer p.Close()

	err := p.IndexingCompleted(context.Background(), IndexingCompleted{
		IndexKey:    "idx-1",
		UserKey:     "hash-a",
		RecordCount: 42,
		Completed:   time.Now(),
	})
	assert.NoError(t, err)
}

func TestPublisherHonorsCancelledContext(t *testing.T) {
	p := NewPublisher(nil, logging.Default())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.IndexingCompleted(ctx, IndexingCompleted{IndexKey: "idx-1"})
	assert.NoError(t, err)
}

func TestCloseWithoutConnection(t *testing.T) {
	p := NewPublisher(nil, logging.Default())
	require.NotPanics(t, p.Close)
}
