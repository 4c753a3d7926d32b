package outbox

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/events"
)

func spooled(typ events.Type) events.SpooledEvent {
	return events.SpooledEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		Topic:       "orders",
		AggregateID: uuid.New(),
		OccurredAt:  time.Now(),
		Body:        []byte(`{"version":1}`),
	}
}

func TestEnqueueIgnoresDuplicateEventIDs(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ev := spooled(events.OrderCreated)

	require.NoError(t, repo.Enqueue(t.Context(), ev))
	require.NoError(t, repo.Enqueue(t.Context(), ev))

	count, err := repo.CountPending(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPendingLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	for range 3 {
		require.NoError(t, repo.Enqueue(t.Context(), spooled(events.ProductUpdated)))
	}

	var rows []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = repo.FetchPendingTx(tx, 10, 3)
		return err
	}))
	require.Len(t, rows, 3)
	assert.Equal(t, "orders", rows[0].Topic)
	assert.Equal(t, string(events.ProductUpdated), rows[0].EventType)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, rows[0].ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, rows[1].ID, errors.New(strings.Repeat("x", 2000))); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, rows[2].ID, errors.New("bad topic"), 3)
	}))

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", rows[1].ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Len(t, *failed.LastError, maxErrorLen)

	var pending []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		pending, err = repo.FetchPendingTx(tx, 10, 3)
		return err
	}))
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)

	count, err := repo.CountPending(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDLQRoundTrip(t *testing.T) {
	conn := dbtest.Open(t)
	dlq := NewDLQRepository(conn)
	outboxID := uuid.New()
	msg := strings.Repeat("e", 1500)

	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		OutboxID:     outboxID,
		EventID:      uuid.NewString(),
		EventType:    string(events.OrderCreated),
		Topic:        "orders",
		AggregateID:  uuid.New(),
		Payload:      []byte(`{}`),
		ErrorReason:  ReasonMaxAttempts,
		ErrorMessage: &msg,
		AttemptCount: 10,
		FailedAt:     time.Now(),
	}))

	found, err := dlq.FindByOutboxID(t.Context(), outboxID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ReasonMaxAttempts, found.ErrorReason)
	assert.Len(t, *found.ErrorMessage, maxErrorLen)

	missing, err := dlq.FindByOutboxID(t.Context(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := dlq.List(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
