// Package sns delivers push messages through SNS mobile push. Profiles hold
// platform endpoint ARNs instead of raw device tokens.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"github.com/go-push-dispatch/internal/application/push"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Messenger publishes push.Message values to platform endpoints.
type Messenger struct {
	client publisher
}

func NewMessenger(awsCfg aws.Config, region string) *Messenger {
	return &Messenger{client: sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if region != "" {
			o.Region = region
		}
	})}
}

func (m *Messenger) Send(ctx context.Context, msg *push.Message) (string, error) {
	body, err := envelope(msg)
	if err != nil {
		return "", err
	}
	out, err := m.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(msg.Token),
		Message:          aws.String(body),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert            *apsAlert `json:"alert,omitempty"`
	Badge            *int      `json:"badge,omitempty"`
	Sound            string    `json:"sound,omitempty"`
	MutableContent   int       `json:"mutable-content,omitempty"`
	ContentAvailable int       `json:"content-available,omitempty"`
	Category         string    `json:"category,omitempty"`
}

type gcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type gcmPayload struct {
	Notification *gcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority,omitempty"`
}

// envelope renders the per-platform JSON SNS expects with MessageStructure=json.
func envelope(msg *push.Message) (string, error) {
	a := aps{
		Badge:    msg.APNS.Badge,
		Sound:    msg.APNS.Sound,
		Category: msg.APNS.Category,
	}
	if msg.APNS.MutableContent {
		a.MutableContent = 1
	}
	if msg.APNS.ContentAvailable {
		a.ContentAvailable = 1
	}
	gcm := gcmPayload{Data: msg.Data}
	fallback := ""
	if !msg.Silent() {
		a.Alert = &apsAlert{Title: msg.Notification.Title, Body: msg.Notification.Body}
		gcm.Notification = &gcmNotification{Title: msg.Notification.Title, Body: msg.Notification.Body}
		gcm.Priority = "high"
		fallback = msg.Notification.Body
	}

	apnsPayload := map[string]any{"aps": a}
	for k, v := range msg.Data {
		if k != "aps" {
			apnsPayload[k] = v
		}
	}
	apnsJSON, err := json.Marshal(apnsPayload)
	if err != nil {
		return "", fmt.Errorf("encode apns payload: %w", err)
	}
	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", fmt.Errorf("encode gcm payload: %w", err)
	}
	body, err := json.Marshal(map[string]string{
		"default":      fallback,
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
		"GCM":          string(gcmJSON),
	})
	if err != nil {
		return "", fmt.Errorf("encode sns envelope: %w", err)
	}
	return string(body), nil
}

// Classify maps SNS publish errors onto the pipeline's failure kinds.
func Classify(err error) push.Classification {
	var (
		disabled *types.EndpointDisabledException
		notFound *types.NotFoundException
		throttle *types.ThrottledException
		internal *types.InternalErrorException
		kms      *types.KMSThrottlingException
	)
	switch {
	case errors.As(err, &disabled):
		return push.Classification{Kind: push.FailureInvalidToken, Code: disabled.ErrorCode()}
	case errors.As(err, &notFound):
		return push.Classification{Kind: push.FailureInvalidToken, Code: notFound.ErrorCode()}
	case errors.As(err, &throttle):
		return push.Classification{Kind: push.FailureTransient, Code: throttle.ErrorCode()}
	case errors.As(err, &internal):
		return push.Classification{Kind: push.FailureTransient, Code: internal.ErrorCode()}
	case errors.As(err, &kms):
		return push.Classification{Kind: push.FailureTransient, Code: kms.ErrorCode()}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := push.FailureUnknown
		if apiErr.ErrorFault() == smithy.FaultServer {
			kind = push.FailureTransient
		}
		return push.Classification{Kind: kind, Code: apiErr.ErrorCode()}
	}
	return push.Classification{Kind: push.FailureUnknown, Code: push.CodeUnknown}
}

// Classifier is Classify as a push.Classifier.
var Classifier = push.ClassifierFunc(Classify)
