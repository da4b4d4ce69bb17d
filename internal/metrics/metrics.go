package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "metric_points_total", Help: "Count of metric points ingested"},
		[]string{"source", "metric"},
	)
	TriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "milestone_triggers_total", Help: "Milestone crossings detected"},
		[]string{"milestone"},
	)
	PostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posts_total", Help: "Posts published per platform"},
		[]string{"platform", "kind"},
	)
	PostFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "post_failures_total", Help: "Failed publish attempts per platform"},
		[]string{"platform"},
	)
	MentionQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "mention_queue_depth", Help: "Mentions waiting in the engagement queue"},
	)
	TxAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chain_tx_attempts_total", Help: "Transaction submission attempts by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(PointsTotal, TriggersTotal, PostsTotal, PostFailures, MentionQueueDepth, TxAttempts)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
