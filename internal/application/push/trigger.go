package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/go-push-dispatch/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is where a creation trigger invocation ended.
type State string

const (
	StateNoTarget  State = "no_target"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
	// StateSkipped means the record was already terminal or no longer exists.
	StateSkipped State = "skipped"
)

type recordStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	MarkSent(ctx context.Context, notificationID string, sentAt time.Time, messageID string) error
	MarkFailed(ctx context.Context, notificationID, message, code string) error
}

type tokenResolver interface {
	Resolve(ctx context.Context, userID string) (string, bool, error)
}

type sender interface {
	Dispatch(ctx context.Context, recipientID string, msg *Message) Outcome
}

// CreationTrigger runs once per created notification:
// resolve token, build payload, dispatch, record the terminal outcome.
type CreationTrigger struct {
	store    recordStore
	resolver tokenResolver
	sender   sender
	now      func() time.Time
	log      *zap.Logger
}

func NewCreationTrigger(store recordStore, resolver tokenResolver, sender sender, log *zap.Logger) *CreationTrigger {
	return &CreationTrigger{store: store, resolver: resolver, sender: sender, now: time.Now, log: log}
}

// Handle processes the created record n. Invocations may repeat for the same
// record; a record that is already terminal is skipped without sending.
// The returned error reports store faults only; send failures are recorded on
// the record and yield StateFailed.
func (t *CreationTrigger) Handle(ctx context.Context, n *domain.Notification) (state State, err error) {
	ctx, span := otel.Tracer("push.trigger").Start(ctx, "push.creation",
		trace.WithAttributes(
			attribute.String("notification.id", n.NotificationID),
			attribute.String("notification.type", string(n.Type)),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("push.state", string(state)))
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		if state != "" {
			triggerTotal.WithLabelValues(string(state)).Inc()
		}
	}()

	log := obs.WithTrace(ctx, t.log).With(
		zap.String("notification_id", n.NotificationID),
		zap.String("recipient_id", n.RecipientID),
	)

	current, err := t.store.Get(ctx, n.NotificationID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("notification gone before dispatch")
		return StateSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("load notification: %w", err)
	}
	if current.Terminal() {
		log.Debug("notification already terminal, not resending")
		return StateSkipped, nil
	}

	token, ok, err := t.resolver.Resolve(ctx, current.RecipientID)
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	if !ok {
		log.Debug("no deliverable target")
		return StateNoTarget, nil
	}

	out := t.sender.Dispatch(ctx, current.RecipientID, BuildMessage(current, token))

	if out.Delivered {
		state = StateDelivered
		err = t.store.MarkSent(ctx, current.NotificationID, t.now(), out.MessageID)
	} else {
		state = StateFailed
		err = t.store.MarkFailed(ctx, current.NotificationID, out.Error, out.ErrorCode)
	}
	if errors.Is(err, domain.ErrConflict) {
		log.Info("outcome already recorded by a concurrent invocation", zap.String("state", string(state)))
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("record outcome: %w", err)
	}
	log.Info("notification processed", zap.String("state", string(state)))
	return state, nil
}
