package push

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_dispatch_total",
		Help: "Push sends by result (delivered, invalid_token, transient, unknown).",
	}, []string{"result"})
	tokensPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_tokens_pruned_total",
		Help: "Device tokens cleared after the provider rejected them.",
	})
	triggerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_creation_trigger_total",
		Help: "Creation trigger invocations by final state.",
	}, []string{"state"})
	badgeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_badge_updates_total",
		Help: "Read-state badge updates by result.",
	}, []string{"result"})
	sweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_retention_deleted_total",
		Help: "Notification records deleted by the retention sweep.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "push_retention_sweep_duration_seconds",
		Help:    "Retention sweep duration.",
		Buckets: prometheus.DefBuckets,
	})
)
