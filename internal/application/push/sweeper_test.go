package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func aged(id string, age time.Duration) *domain.Notification {
	return &domain.Notification{NotificationID: id, RecipientID: "u1", CreatedAt: fixedNow.Add(-age)}
}

func newSweeper(store retentionStore, limit int) *Sweeper {
	s := NewSweeper(store, DefaultRetention, limit, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSweeper_DeletesOnlyOlderThanHorizon(t *testing.T) {
	day := 24 * time.Hour
	store := newMemStore(aged("d40", 40*day), aged("d31", 31*day), aged("d29", 29*day), aged("today", time.Hour))

	n, err := newSweeper(store, 0).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, store.record("d40"))
	assert.Nil(t, store.record("d31"))
	assert.NotNil(t, store.record("d29"))
	assert.NotNil(t, store.record("today"))
}

func TestSweeper_RespectsLimit(t *testing.T) {
	day := 24 * time.Hour
	store := newMemStore(aged("a", 50*day), aged("b", 45*day), aged("c", 40*day))

	n, err := newSweeper(store, 2).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Nil(t, store.record("a"))
	assert.Nil(t, store.record("b"))
	assert.NotNil(t, store.record("c"))
}

func TestSweeper_NothingToDelete(t *testing.T) {
	store := newMemStore(aged("fresh", time.Hour))
	n, err := newSweeper(store, 0).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotNil(t, store.record("fresh"))
}

type failingDeletes struct{ *memStore }

func (failingDeletes) DeleteBatch(context.Context, []string) error {
	return errors.New("transaction cancelled")
}

func TestSweeper_DeleteFailureAborts(t *testing.T) {
	store := failingDeletes{newMemStore(aged("old", 60*24*time.Hour))}
	n, err := newSweeper(store, 0).Sweep(context.Background())
	assert.ErrorContains(t, err, "delete expired notifications")
	assert.Zero(t, n)
	assert.NotNil(t, store.record("old"))
}

func TestNewSweeper_Defaults(t *testing.T) {
	s := NewSweeper(newMemStore(), 0, -1, zap.NewNop())
	assert.Equal(t, DefaultRetention, s.horizon)
	assert.Equal(t, DefaultSweepLimit, s.limit)
}
