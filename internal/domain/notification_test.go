package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotification_Terminal(t *testing.T) {
	now := time.Now()

	assert.False(t, (&Notification{}).Terminal())
	assert.True(t, (&Notification{SentAt: &now, FCMMessageID: "m1"}).Terminal())
	assert.True(t, (&Notification{Error: "boom", ErrorCode: "unknown"}).Terminal())
}
