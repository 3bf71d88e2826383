package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-push-dispatch/internal/application/push"
	"github.com/go-push-dispatch/internal/config"
	"github.com/go-push-dispatch/internal/infrastructure/fcm"
	"github.com/go-push-dispatch/internal/infrastructure/sns"
)

// bootstrapProvider builds the messenger and classifier named by PUSH_PROVIDER.
func bootstrapProvider(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (push.Messenger, push.Classifier, error) {
	switch cfg.PushProvider {
	case "fcm":
		m, err := fcm.NewMessenger(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return m, fcm.Classifier, nil
	case "sns":
		return sns.NewMessenger(awsCfg, cfg.SNSRegion), sns.Classifier, nil
	}
	return nil, nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
}
