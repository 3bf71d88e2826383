package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/go-push-dispatch/internal/pkg/id"
	"github.com/go-push-dispatch/internal/pkg/validate"
)

// Fixed content of the manual test notification.
const (
	testTitle = "Test Notification"
	testBody  = "This is a test push notification."
)

type Service interface {
	Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	SendTest(ctx context.Context, req domain.TestNotificationRequest) (*domain.TestNotificationResult, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	repo notificationStore
	now  func() time.Time
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo, now: time.Now}
}

// Create stores a new unread record. Delivery happens asynchronously off the
// table's change stream.
func (s *service) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.create(ctx, &domain.Notification{
		RecipientID: req.RecipientID,
		Type:        domain.NotificationType(req.Type),
		Title:       req.Title,
		Body:        req.Body,
		Data:        req.Data,
	})
}

func (s *service) create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	n.NotificationID = id.New()
	n.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return n, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.Get(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

// SendTest creates a fixed test notification for req.UserID. It is the only
// entry point whose input errors reach a caller.
func (s *service) SendTest(ctx context.Context, req domain.TestNotificationRequest) (*domain.TestNotificationResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidArgument)
	}
	n, err := s.create(ctx, &domain.Notification{
		RecipientID: req.UserID,
		Type:        domain.TypeTest,
		Title:       testTitle,
		Body:        testBody,
	})
	if err != nil {
		return nil, err
	}
	return &domain.TestNotificationResult{Success: true, NotificationID: n.NotificationID}, nil
}
