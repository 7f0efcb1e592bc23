package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestOutboxRepository_Lifecycle(t *testing.T) {
	repo := memory.NewOutboxRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	second, err := repo.Enqueue(domain.OutboxMessage{Topic: "orders", Key: "LX2", Payload: []byte(`{"n":2}`), CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)
	require.NotEmpty(t, second.ID)
	first, err := repo.Enqueue(domain.OutboxMessage{Topic: "orders", Key: "LX1", Payload: []byte(`{"n":1}`), CreatedAt: base})
	require.NoError(t, err)

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.Equal(base))

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, second.ID, pending[1].ID)

	limited, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	require.NoError(t, repo.MarkSent(first.ID))
	require.NoError(t, repo.MarkFailed(second.ID))

	pending, err = repo.PullPending(0)
	require.NoError(t, err)
	require.Empty(t, pending)

	status, ok := repo.Status(second.ID)
	require.True(t, ok)
	require.Equal(t, domain.OutboxStatusFailed, status)

	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.IsZero())
}

func TestOutboxRepository_Errors(t *testing.T) {
	repo := memory.NewOutboxRepository()

	_, err := repo.Enqueue(domain.OutboxMessage{Payload: []byte(`{}`)})
	require.ErrorIs(t, err, domain.ErrOutboxTopicRequired)

	require.ErrorIs(t, repo.MarkSent("missing"), domain.ErrOutboxMessageNotFound)
	require.ErrorIs(t, repo.MarkFailed("missing"), domain.ErrOutboxMessageNotFound)
}

func TestOutboxRepository_CopiesPayload(t *testing.T) {
	repo := memory.NewOutboxRepository()
	payload := []byte(`{"a":1}`)

	msg, err := repo.Enqueue(domain.OutboxMessage{Topic: "orders", Payload: payload})
	require.NoError(t, err)
	payload[2] = 'b'

	pending, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Equal(t, msg.ID, pending[0].ID)
	require.JSONEq(t, `{"a":1}`, string(pending[0].Payload))
}
