package push

import (
	"context"
	"testing"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandlers_RouteEvents(t *testing.T) {
	rec := chatRecord()
	store := newMemStore(rec)
	profiles := newMemProfiles().with("u1", "tok")
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("m-1", nil)

	h := &Handlers{
		Creation: NewCreationTrigger(store, NewTokenResolver(profiles), NewDispatcher(m, nil, profiles, zap.NewNop()), zap.NewNop()),
		Badge:    NewBadgeUpdater(store, NewTokenResolver(profiles), m, zap.NewNop()),
		Log:      zap.NewNop(),
	}

	h.OnCreated(context.Background(), rec)
	assert.True(t, store.record("n1").Terminal())

	read := *rec
	read.IsRead = true
	h.OnUpdated(context.Background(), rec, &read)
	m.AssertNumberOfCalls(t, "Send", 2)
}

func TestHandlers_OnCreatedLogsStoreFaults(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	m := &mockMessenger{}
	h := &Handlers{
		Creation: NewCreationTrigger(newMemStore(chatRecord()), NewTokenResolver(brokenProfiles{}),
			NewDispatcher(m, nil, newMemProfiles(), zap.NewNop()), zap.NewNop()),
		Log: zap.New(core),
	}

	assert.NotPanics(t, func() { h.OnCreated(context.Background(), &domain.Notification{NotificationID: "n1"}) })
	assert.Equal(t, 1, logs.FilterMessage("creation trigger failed").Len())
}
