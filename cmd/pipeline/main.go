package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-push-dispatch/internal/application/push"
	"github.com/go-push-dispatch/internal/application/schedule"
	"github.com/go-push-dispatch/internal/config"
	"github.com/go-push-dispatch/internal/infrastructure/dynamo"
	"github.com/go-push-dispatch/internal/obs"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	l, err := obs.NewLogger(obs.LogConfig{
		Level: cfg.LogLevel, Pretty: cfg.LogPretty,
		App: "push-pipeline", Env: cfg.AppEnv, Ver: cfg.AppVersion,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting pipeline",
		zap.String("provider", cfg.PushProvider),
		zap.String("table", cfg.DynamoTables.Notifications),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, obs.OTELConfig{
		Enable: cfg.OTELEnable, Endpoint: cfg.OTELEndpoint,
		ServiceName: "push-pipeline", SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// storage
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		l.Fatal("aws config", zap.Error(err))
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, l)
	notifications := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	profiles := dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles)

	// provider
	messenger, classifier, err := bootstrapProvider(ctx, cfg, awsCfg)
	if err != nil {
		l.Fatal("push provider", zap.Error(err))
	}

	// metrics server
	ms := obs.BootstrapMetricsServer(cfg.MetricsAddr, func(ctx context.Context) error {
		_, err := dynamoClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(cfg.DynamoTables.Notifications),
		})
		return err
	}, l)

	// wiring
	resolver := push.NewTokenResolver(profiles)
	dispatcher := push.NewDispatcher(messenger, classifier, profiles, l)
	handlers := &push.Handlers{
		Creation: push.NewCreationTrigger(notifications, resolver, dispatcher, l),
		Badge:    push.NewBadgeUpdater(notifications, resolver, messenger, l),
		Log:      l,
	}
	listener := &dynamo.StreamListener{
		Streams:      dynamo.NewStreamsClient(awsCfg, cfg),
		Tables:       dynamoClient,
		TableName:    cfg.DynamoTables.Notifications,
		PollInterval: cfg.StreamPollInterval,
		RefreshEvery: cfg.StreamRefreshInterval,
		Log:          l,
	}

	when, err := schedule.ParseDaily(cfg.SweepAt, cfg.SweepTimezone)
	if err != nil {
		l.Fatal("sweep schedule", zap.Error(err))
	}
	sweeper := push.NewSweeper(notifications, cfg.RetentionHorizon(), cfg.RetentionBatchLimit, l)
	sweepRunner := &schedule.Runner{
		Name: "retention-sweep",
		When: when,
		Job: func(ctx context.Context) error {
			_, err := sweeper.Sweep(ctx)
			return err
		},
		Log: l,
	}

	// run
	errCh := make(chan error, 2)
	go func() { errCh <- listener.Run(ctx, handlers) }()
	go func() { errCh <- sweepRunner.Run(ctx) }()

	l.Info("pipeline started", zap.Stringer("sweep_at", when))

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("pipeline component stopped", zap.Error(err))
		}
		stop()
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
