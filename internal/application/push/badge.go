package push

import (
	"context"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/go-push-dispatch/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BadgeResult is where a read-state invocation ended.
type BadgeResult string

const (
	BadgeIgnored  BadgeResult = "ignored"
	BadgeNoTarget BadgeResult = "no_target"
	BadgeSent     BadgeResult = "sent"
	BadgeFailed   BadgeResult = "failed"
)

type unreadCounter interface {
	CountUnread(ctx context.Context, recipientID, excludeID string) (int, error)
}

// BadgeUpdater pushes a silent badge refresh when a notification is read.
// Failures are logged and never retried.
type BadgeUpdater struct {
	counter   unreadCounter
	resolver  tokenResolver
	messenger Messenger
	log       *zap.Logger
}

func NewBadgeUpdater(counter unreadCounter, resolver tokenResolver, messenger Messenger, log *zap.Logger) *BadgeUpdater {
	return &BadgeUpdater{counter: counter, resolver: resolver, messenger: messenger, log: log}
}

// Handle acts only on an is_read transition from false to true.
func (b *BadgeUpdater) Handle(ctx context.Context, before, after *domain.Notification) (result BadgeResult) {
	if before == nil || after == nil || before.IsRead || !after.IsRead {
		return BadgeIgnored
	}

	ctx, span := otel.Tracer("push.badge").Start(ctx, "push.badge",
		trace.WithAttributes(attribute.String("notification.id", after.NotificationID)),
	)
	defer func() {
		span.SetAttributes(attribute.String("badge.result", string(result)))
		span.End()
		badgeTotal.WithLabelValues(string(result)).Inc()
	}()

	log := obs.WithTrace(ctx, b.log).With(
		zap.String("notification_id", after.NotificationID),
		zap.String("recipient_id", after.RecipientID),
	)

	unread, err := b.counter.CountUnread(ctx, after.RecipientID, after.NotificationID)
	if err != nil {
		log.Warn("count unread failed", zap.Error(err))
		return BadgeFailed
	}

	token, ok, err := b.resolver.Resolve(ctx, after.RecipientID)
	if err != nil {
		log.Warn("resolve token failed", zap.Error(err))
		return BadgeFailed
	}
	if !ok {
		return BadgeNoTarget
	}

	if _, err := b.messenger.Send(ctx, BuildBadgeMessage(token, unread)); err != nil {
		log.Warn("badge update failed", zap.Int("unread", unread), zap.Error(err))
		return BadgeFailed
	}
	log.Debug("badge updated", zap.Int("unread", unread))
	return BadgeSent
}
