package domain

import "time"

// NotificationType categorises a notification; the set is open-ended.
type NotificationType string

const (
	TypeNewMessage             NotificationType = "new_message"
	TypeNewComment             NotificationType = "new_comment"
	TypeNewBookingRequest      NotificationType = "new_booking_request"
	TypeBookingConfirmed       NotificationType = "booking_confirmed"
	TypeBookingCancelled       NotificationType = "booking_cancelled"
	TypeAppointmentReminder    NotificationType = "appointment_reminder"
	TypeProApplicationApproved NotificationType = "pro_application_approved"
	TypeProApplicationRejected NotificationType = "pro_application_rejected"
	TypePostSaved              NotificationType = "post_saved"
	TypeNewFollower            NotificationType = "new_follower"
	TypeTest                   NotificationType = "test"
)

// NotificationKind is the constant partition value of the retention index.
const NotificationKind = "notification"

// Notification is one push-worthy event and its delivery outcome.
// After creation it receives at most one terminal write: SentAt+FCMMessageID or Error+ErrorCode.
type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	RecipientID    string           `json:"recipientId" dynamodbav:"recipient_id"`
	Type           NotificationType `json:"type" dynamodbav:"type"`
	Title          string           `json:"title" dynamodbav:"title"`
	Body           string           `json:"body" dynamodbav:"body"`
	Data           map[string]any   `json:"data,omitempty" dynamodbav:"data,omitempty"`
	IsRead         bool             `json:"isRead" dynamodbav:"is_read"`
	Kind           string           `json:"-" dynamodbav:"kind"`
	CreatedAt      time.Time        `json:"createdAt" dynamodbav:"created_at,unixtime"`
	SentAt         *time.Time       `json:"sentAt,omitempty" dynamodbav:"sent_at,omitempty"`
	FCMMessageID   string           `json:"fcmMessageId,omitempty" dynamodbav:"fcm_message_id,omitempty"`
	Error          string           `json:"error,omitempty" dynamodbav:"error,omitempty"`
	ErrorCode      string           `json:"errorCode,omitempty" dynamodbav:"error_code,omitempty"`
}

// Terminal reports whether the delivery outcome has already been recorded.
func (n *Notification) Terminal() bool {
	return n.SentAt != nil || n.Error != ""
}

// CreateNotificationRequest is the inbound shape for creating a notification.
type CreateNotificationRequest struct {
	RecipientID string         `json:"recipientId" validate:"required"`
	Type        string         `json:"type" validate:"required"`
	Title       string         `json:"title" validate:"required"`
	Body        string         `json:"body" validate:"required"`
	Data        map[string]any `json:"data"`
}

// TestNotificationRequest is the input of the manual test trigger.
type TestNotificationRequest struct {
	UserID string `json:"userId"`
}

// TestNotificationResult is returned by the manual test trigger.
type TestNotificationResult struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notificationId"`
}
