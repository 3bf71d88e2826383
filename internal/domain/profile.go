package domain

import "time"

// Profile is the slice of the user profile this service reads. The push token
// is owned by the app; this service only ever clears it.
type Profile struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	PushToken *string   `json:"pushToken,omitempty" dynamodbav:"push_token,omitempty"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
