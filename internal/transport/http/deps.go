package http

import (
	"context"

	"github.com/go-push-dispatch/internal/domain"
)

// NotificationRepository is the minimal interface the router requires from a notification store.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}
