package push

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultRetention  = 30 * 24 * time.Hour
	DefaultSweepLimit = 500
)

type retentionStore interface {
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteBatch(ctx context.Context, ids []string) error
}

// Sweeper deletes notifications older than the retention horizon, at most
// limit per run. Leftovers wait for the next run.
type Sweeper struct {
	store   retentionStore
	horizon time.Duration
	limit   int
	now     func() time.Time
	log     *zap.Logger
}

func NewSweeper(store retentionStore, horizon time.Duration, limit int, log *zap.Logger) *Sweeper {
	if horizon <= 0 {
		horizon = DefaultRetention
	}
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	return &Sweeper{store: store, horizon: horizon, limit: limit, now: time.Now, log: log}
}

// Sweep runs one pass and returns how many records were deleted. Deletes go out
// in transactions of at most 100 items, so the pass is not atomic: if a later
// chunk fails, earlier chunks stay deleted while the error is returned. The
// next run repeats the same query and picks up whatever is left.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := s.now().Add(-s.horizon)
	ctx, span := otel.Tracer("push.sweeper").Start(ctx, "push.sweep")
	defer span.End()
	span.SetAttributes(attribute.String("sweep.cutoff", cutoff.UTC().Format(time.RFC3339)))

	ids, err := s.store.ListCreatedBefore(ctx, cutoff, s.limit)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("list expired notifications: %w", err)
	}
	if len(ids) == 0 {
		s.log.Debug("nothing to sweep", zap.Time("cutoff", cutoff))
		return 0, nil
	}
	if err := s.store.DeleteBatch(ctx, ids); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("delete expired notifications: %w", err)
	}

	sweptTotal.Add(float64(len(ids)))
	span.SetAttributes(attribute.Int("sweep.deleted", len(ids)))
	s.log.Info("swept old notifications", zap.Int("deleted", len(ids)), zap.Time("cutoff", cutoff))
	return len(ids), nil
}
