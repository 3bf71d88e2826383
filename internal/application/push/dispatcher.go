package push

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type tokenPruner interface {
	ClearPushToken(ctx context.Context, userID string) error
}

// Outcome is the single result of a send: either a message id or an error pair.
type Outcome struct {
	Delivered bool
	MessageID string
	Error     string
	ErrorCode string
	Kind      FailureKind
}

// Dispatcher sends messages and reacts to failures. It never retries.
type Dispatcher struct {
	messenger  Messenger
	classifier Classifier
	profiles   tokenPruner
	log        *zap.Logger
}

func NewDispatcher(messenger Messenger, classifier Classifier, profiles tokenPruner, log *zap.Logger) *Dispatcher {
	return &Dispatcher{messenger: messenger, classifier: classifier, profiles: profiles, log: log}
}

// Dispatch sends msg to recipientID. A token the provider rejects as invalid or
// unregistered is cleared from the profile; failing to clear it is only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientID string, msg *Message) Outcome {
	messageID, err := d.messenger.Send(ctx, msg)
	if err == nil {
		dispatchTotal.WithLabelValues("delivered").Inc()
		return Outcome{Delivered: true, MessageID: messageID}
	}

	c := d.classify(err)
	dispatchTotal.WithLabelValues(c.Kind.String()).Inc()
	log := d.log.With(zap.String("recipient_id", recipientID), zap.String("error_code", c.Code))

	if c.Kind == FailureInvalidToken {
		log.Info("push token rejected, clearing it", zap.Error(err))
		if clearErr := d.profiles.ClearPushToken(ctx, recipientID); clearErr != nil {
			log.Warn("clear push token failed", zap.Error(clearErr))
		} else {
			tokensPruned.Inc()
		}
	} else {
		log.Warn("push send failed", zap.Stringer("kind", c.Kind), zap.Error(err))
	}

	return Outcome{Error: err.Error(), ErrorCode: c.Code, Kind: c.Kind}
}

func (d *Dispatcher) classify(err error) Classification {
	var se *SendError
	if errors.As(err, &se) {
		return normalize(se.Classification)
	}
	if d.classifier == nil {
		return Classification{Kind: FailureUnknown, Code: CodeUnknown}
	}
	return normalize(d.classifier.Classify(err))
}

func normalize(c Classification) Classification {
	if c.Code == "" {
		c.Code = CodeUnknown
	}
	return c
}
