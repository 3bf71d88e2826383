// Package fcm delivers push messages through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-push-dispatch/internal/application/push"
	"github.com/go-push-dispatch/internal/config"
	"google.golang.org/api/option"
)

// Error codes recorded on notifications for FCM failures.
const (
	CodeNotRegistered   = "registration-token-not-registered"
	CodeInvalidArgument = "invalid-argument"
	CodeQuotaExceeded   = "message-rate-exceeded"
	CodeUnavailable     = "server-unavailable"
	CodeInternal        = "internal-error"
	CodeSenderMismatch  = "mismatched-credential"
)

// FCM rejects the whole message when data carries one of these keys.
var reservedDataKeys = map[string]bool{
	"from":         true,
	"notification": true,
	"message_type": true,
}

type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Messenger sends push.Message values through FCM.
type Messenger struct {
	client sender
}

// NewMessenger initialises the Firebase app. Without a credentials file the
// application default credentials are used. extra is appended to the client
// options, e.g. to point the client at another endpoint.
func NewMessenger(ctx context.Context, cfg *config.Config, extra ...option.ClientOption) (*Messenger, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	opts = append(opts, extra...)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &Messenger{client: client}, nil
}

func (m *Messenger) Send(ctx context.Context, msg *push.Message) (string, error) {
	return m.client.Send(ctx, toFCM(msg))
}

func toFCM(msg *push.Message) *messaging.Message {
	out := &messaging.Message{
		Token: msg.Token,
		Data:  dataPayload(msg.Data),
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge:            msg.APNS.Badge,
					Sound:            msg.APNS.Sound,
					MutableContent:   msg.APNS.MutableContent,
					ContentAvailable: msg.APNS.ContentAvailable,
					Category:         msg.APNS.Category,
				},
			},
		},
	}
	if msg.Silent() {
		out.APNS.Headers = map[string]string{
			"apns-push-type": "background",
			"apns-priority":  "5",
		}
		return out
	}
	out.Notification = &messaging.Notification{
		Title: msg.Notification.Title,
		Body:  msg.Notification.Body,
	}
	out.Android = &messaging.AndroidConfig{Priority: "high"}
	return out
}

func dataPayload(data map[string]string) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		lk := strings.ToLower(k)
		if reservedDataKeys[lk] || strings.HasPrefix(lk, "google") || strings.HasPrefix(lk, "gcm") {
			continue
		}
		out[k] = v
	}
	return out
}

// Classify maps FCM send errors onto the pipeline's failure kinds. Only errors
// about the token itself lead to pruning; INVALID_ARGUMENT also covers payload
// faults, so it stays unknown.
func Classify(err error) push.Classification {
	switch {
	case messaging.IsUnregistered(err):
		return push.Classification{Kind: push.FailureInvalidToken, Code: CodeNotRegistered}
	case messaging.IsInvalidArgument(err):
		return push.Classification{Kind: push.FailureUnknown, Code: CodeInvalidArgument}
	case messaging.IsSenderIDMismatch(err):
		return push.Classification{Kind: push.FailureInvalidToken, Code: CodeSenderMismatch}
	case messaging.IsQuotaExceeded(err):
		return push.Classification{Kind: push.FailureTransient, Code: CodeQuotaExceeded}
	case messaging.IsUnavailable(err):
		return push.Classification{Kind: push.FailureTransient, Code: CodeUnavailable}
	case messaging.IsInternal(err):
		return push.Classification{Kind: push.FailureTransient, Code: CodeInternal}
	}
	return push.Classification{Kind: push.FailureUnknown, Code: push.CodeUnknown}
}

// Classifier is Classify as a push.Classifier.
var Classifier = push.ClassifierFunc(Classify)
