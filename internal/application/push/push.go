// Package push implements the notification dispatch pipeline: token resolution,
// payload building, provider dispatch with failure classification, the creation
// and read-state triggers, and the retention sweep.
package push

import (
	"context"
	"fmt"
)

// Message is the provider-neutral push payload. Providers translate it into
// their own wire format.
type Message struct {
	Token string
	// Notification is the visible alert; nil makes the message silent.
	Notification *Alert
	Data         map[string]string
	APNS         APNS
}

type Alert struct {
	Title string
	Body  string
}

// APNS carries the iOS extensions used for rich and background delivery.
type APNS struct {
	Badge            *int
	Sound            string
	MutableContent   bool
	ContentAvailable bool
	Category         string
}

// Silent reports whether the message carries no visible alert.
func (m *Message) Silent() bool { return m.Notification == nil }

// Messenger sends one message and returns the provider's acknowledgment id.
type Messenger interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// FailureKind groups provider errors by how the pipeline reacts to them.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureInvalidToken
	FailureTransient
)

func (k FailureKind) String() string {
	switch k {
	case FailureInvalidToken:
		return "invalid_token"
	case FailureTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classification is a provider error mapped onto a FailureKind plus the code
// recorded on the notification.
type Classification struct {
	Kind FailureKind
	Code string
}

// Classifier maps provider-specific send errors onto a Classification.
type Classifier interface {
	Classify(err error) Classification
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) Classification

func (f ClassifierFunc) Classify(err error) Classification { return f(err) }

// CodeUnknown is recorded when the provider supplies no usable code.
const CodeUnknown = "unknown"

// SendError is returned by messengers that already know the classification of
// a failure, e.g. when a provider reports it in a response body.
type SendError struct {
	Classification
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("%s (%s)", e.Err, e.Code) }
func (e *SendError) Unwrap() error { return e.Err }
