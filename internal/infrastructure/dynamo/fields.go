package dynamo

// DynamoDB attribute names used in key, filter and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldNotificationID = "notification_id"
	fieldRecipientID    = "recipient_id"
	fieldKind           = "kind"
	fieldIsRead         = "is_read"
	fieldCreatedAt      = "created_at"
	fieldSentAt         = "sent_at"
	fieldFCMMessageID   = "fcm_message_id"
	fieldError          = "error"
	fieldErrorCode      = "error_code"

	fieldUserID    = "user_id"
	fieldPushToken = "push_token"
	fieldUpdatedAt = "updated_at"
)

// Index names.
const (
	indexRecipientCreated = "recipient_id-created_at-index"
	indexKindCreated      = "kind-created_at-index"
)
