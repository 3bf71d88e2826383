package push

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-push-dispatch/internal/domain"
)

// DefaultCategory is used for any type without a dedicated category.
const DefaultCategory = "DEFAULT"

// defaultType is sent when a record carries no type.
const defaultType = "general"

// initialBadge is the fixed badge on creation pushes. Only the read-state
// path computes a real unread count.
const initialBadge = 1

var categories = map[domain.NotificationType]string{
	domain.TypeNewMessage:             "CHAT_MESSAGE",
	domain.TypeNewComment:             "NEW_COMMENT",
	domain.TypeNewBookingRequest:      "NEW_BOOKING",
	domain.TypeBookingConfirmed:       "BOOKING_UPDATE",
	domain.TypeBookingCancelled:       "BOOKING_UPDATE",
	domain.TypeAppointmentReminder:    "APPOINTMENT_REMINDER",
	domain.TypeProApplicationApproved: "PRO_APPLICATION",
	domain.TypeProApplicationRejected: "PRO_APPLICATION",
	domain.TypePostSaved:              "SOCIAL",
	domain.TypeNewFollower:            "SOCIAL",
}

// Category returns the interactive-notification category for t.
func Category(t domain.NotificationType) string {
	if c, ok := categories[t]; ok {
		return c
	}
	return DefaultCategory
}

// BuildMessage maps a stored notification onto the visible push for token.
// The type and notificationId keys always reflect the record itself, even if
// the caller's data map uses the same keys.
func BuildMessage(n *domain.Notification, token string) *Message {
	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = stringify(v)
	}
	typ := string(n.Type)
	if typ == "" {
		typ = defaultType
	}
	data["type"] = typ
	data["notificationId"] = n.NotificationID

	badge := initialBadge
	return &Message{
		Token:        token,
		Notification: &Alert{Title: n.Title, Body: n.Body},
		Data:         data,
		APNS: APNS{
			Badge:          &badge,
			Sound:          "default",
			MutableContent: true,
			Category:       Category(n.Type),
		},
	}
}

// BuildBadgeMessage is the silent, badge-only update.
func BuildBadgeMessage(token string, unread int) *Message {
	return &Message{
		Token: token,
		APNS: APNS{
			Badge:            &unread,
			ContentAvailable: true,
		},
	}
}

// stringify flattens a data value; providers only accept string pairs.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
