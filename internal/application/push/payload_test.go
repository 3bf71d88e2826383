package push

import (
	"testing"

	"github.com/go-push-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_IsTotal(t *testing.T) {
	cases := map[domain.NotificationType]string{
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
		domain.TypeTest:                   "DEFAULT",
		"referral_bonus":                  "DEFAULT",
		"":                                "DEFAULT",
	}
	for typ, want := range cases {
		assert.Equal(t, want, Category(typ), "type %q", typ)
	}
}

func TestBuildMessage_NewMessage(t *testing.T) {
	n := &domain.Notification{
		NotificationID: "n1",
		RecipientID:    "u1",
		Type:           domain.TypeNewMessage,
		Title:          "Jo",
		Body:           "hi",
		Data:           map[string]any{"chatId": "c9", "unread": float64(3), "urgent": true, "missing": nil},
	}

	msg := BuildMessage(n, "tok123")

	assert.Equal(t, "tok123", msg.Token)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, Alert{Title: "Jo", Body: "hi"}, *msg.Notification)
	assert.Equal(t, map[string]string{
		"type":           "new_message",
		"notificationId": "n1",
		"chatId":         "c9",
		"unread":         "3",
		"urgent":         "true",
		"missing":        "",
	}, msg.Data)
	require.NotNil(t, msg.APNS.Badge)
	assert.Equal(t, 1, *msg.APNS.Badge)
	assert.Equal(t, "default", msg.APNS.Sound)
	assert.True(t, msg.APNS.MutableContent)
	assert.False(t, msg.APNS.ContentAvailable)
	assert.Equal(t, "CHAT_MESSAGE", msg.APNS.Category)
	assert.False(t, msg.Silent())
}

func TestBuildMessage_DefaultsTypeAndKeepsReservedKeys(t *testing.T) {
	n := &domain.Notification{
		NotificationID: "n2",
		Data:           map[string]any{"type": "spoofed", "notificationId": "other", "ids": []any{"a", "b"}},
	}

	msg := BuildMessage(n, "tok")

	assert.Equal(t, "general", msg.Data["type"])
	assert.Equal(t, "n2", msg.Data["notificationId"])
	assert.Equal(t, `["a","b"]`, msg.Data["ids"])
	assert.Equal(t, DefaultCategory, msg.APNS.Category)
}

func TestBuildBadgeMessage_IsSilent(t *testing.T) {
	msg := BuildBadgeMessage("tok", 4)

	assert.True(t, msg.Silent())
	assert.Empty(t, msg.Data)
	require.NotNil(t, msg.APNS.Badge)
	assert.Equal(t, 4, *msg.APNS.Badge)
	assert.True(t, msg.APNS.ContentAvailable)
	assert.Empty(t, msg.APNS.Sound)
	assert.Empty(t, msg.APNS.Category)
}
