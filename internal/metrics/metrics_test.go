package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	PointsTotal.WithLabelValues("market", "market_cap_usd").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "metric_points_total" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("metric_points_total metric not found")
	}
}
