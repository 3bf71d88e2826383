package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-push-dispatch/internal/config"
	"github.com/go-push-dispatch/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-push-dispatch/internal/infrastructure/jwt"
	"github.com/go-push-dispatch/internal/obs"
	transporthttp "github.com/go-push-dispatch/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	l, err := obs.NewLogger(obs.LogConfig{
		Level: cfg.LogLevel, Pretty: cfg.LogPretty,
		App: "push-api", Env: cfg.AppEnv, Ver: cfg.AppVersion,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelCloser, err := obs.SetupOTel(ctx, obs.OTELConfig{
		Enable: cfg.OTELEnable, Endpoint: cfg.OTELEndpoint,
		ServiceName: "push-api", SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		l.Fatal("aws config", zap.Error(err))
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, l)

	// Without a public key every authenticated route rejects the request.
	verifier, err := jwtinfra.NewVerifier(cfg)
	if err != nil {
		l.Fatal("jwt verifier", zap.Error(err))
	}

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		Verifier:         verifier,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	l.Info("shutting down server")
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		l.Error("forced shutdown", zap.Error(err))
	}
	l.Info("server stopped")
}
