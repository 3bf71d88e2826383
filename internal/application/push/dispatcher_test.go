package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func staticClassifier(c Classification) Classifier {
	return ClassifierFunc(func(error) Classification { return c })
}

func TestDispatcher_Delivered(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("msg-1", nil)
	profiles := newMemProfiles().with("u1", "tok")

	out := NewDispatcher(m, staticClassifier(Classification{}), profiles, zap.NewNop()).
		Dispatch(context.Background(), "u1", &Message{Token: "tok"})

	assert.Equal(t, Outcome{Delivered: true, MessageID: "msg-1"}, out)
	assert.Empty(t, profiles.cleared)
}

func TestDispatcher_InvalidTokenClearsProfile(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("", errors.New("registration token is not registered"))
	profiles := newMemProfiles().with("u1", "tok")
	c := staticClassifier(Classification{Kind: FailureInvalidToken, Code: "registration-token-not-registered"})

	out := NewDispatcher(m, c, profiles, zap.NewNop()).Dispatch(context.Background(), "u1", &Message{Token: "tok"})

	assert.False(t, out.Delivered)
	assert.Equal(t, "registration token is not registered", out.Error)
	assert.Equal(t, "registration-token-not-registered", out.ErrorCode)
	assert.Equal(t, []string{"u1"}, profiles.cleared)
	assert.Nil(t, profiles.tokens["u1"])
}

func TestDispatcher_ClearFailureDoesNotChangeOutcome(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("", errors.New("invalid token"))
	profiles := newMemProfiles().with("u1", "tok")
	profiles.clearErr = errors.New("throttled")
	c := staticClassifier(Classification{Kind: FailureInvalidToken, Code: "invalid-registration-token"})

	out := NewDispatcher(m, c, profiles, zap.NewNop()).Dispatch(context.Background(), "u1", &Message{})

	assert.False(t, out.Delivered)
	assert.Equal(t, "invalid-registration-token", out.ErrorCode)
	assert.Equal(t, FailureInvalidToken, out.Kind)
}

func TestDispatcher_TransientKeepsToken(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	profiles := newMemProfiles().with("u1", "tok")

	out := NewDispatcher(m, staticClassifier(Classification{Kind: FailureTransient, Code: "quota-exceeded"}), profiles, zap.NewNop()).
		Dispatch(context.Background(), "u1", &Message{})

	assert.Equal(t, "quota-exceeded", out.ErrorCode)
	assert.Empty(t, profiles.cleared)
	m.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_UnknownWithoutCodeDefaults(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("", errors.New("weird"))

	out := NewDispatcher(m, nil, newMemProfiles(), zap.NewNop()).Dispatch(context.Background(), "u1", &Message{})

	assert.Equal(t, CodeUnknown, out.ErrorCode)
	assert.Equal(t, FailureUnknown, out.Kind)
}

func TestDispatcher_SendErrorOverridesClassifier(t *testing.T) {
	m := &mockMessenger{}
	m.On("Send", mock.Anything, mock.Anything).Return("", &SendError{
		Classification: Classification{Kind: FailureInvalidToken, Code: "EndpointDisabled"},
		Err:            errors.New("endpoint is disabled"),
	})
	profiles := newMemProfiles().with("u1", "arn")

	out := NewDispatcher(m, staticClassifier(Classification{Kind: FailureTransient}), profiles, zap.NewNop()).
		Dispatch(context.Background(), "u1", &Message{})

	assert.Equal(t, "EndpointDisabled", out.ErrorCode)
	assert.Equal(t, []string{"u1"}, profiles.cleared)
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "invalid_token", FailureInvalidToken.String())
	assert.Equal(t, "transient", FailureTransient.String())
	assert.Equal(t, "unknown", FailureUnknown.String())
}
