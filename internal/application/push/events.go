package push

import (
	"context"

	"github.com/go-push-dispatch/internal/domain"
	"go.uber.org/zap"
)

// Handlers adapts the triggers to table change events. Every failure is
// contained here; nothing propagates to the event source.
type Handlers struct {
	Creation *CreationTrigger
	Badge    *BadgeUpdater
	Log      *zap.Logger
}

func (h *Handlers) OnCreated(ctx context.Context, n *domain.Notification) {
	if _, err := h.Creation.Handle(ctx, n); err != nil {
		h.Log.Error("creation trigger failed",
			zap.String("notification_id", n.NotificationID),
			zap.Error(err),
		)
	}
}

func (h *Handlers) OnUpdated(ctx context.Context, before, after *domain.Notification) {
	h.Badge.Handle(ctx, before, after)
}
