package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder_CountsPerLabelSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg).(*PrometheusRecorder)

	rec.IncCounter("payment_attempt", map[string]string{"network": "base"})
	rec.IncCounter("payment_attempt", map[string]string{"network": "base"})
	rec.IncCounter("payment_attempt", map[string]string{"network": "polygon"})
	rec.IncCounter("payment_challenge_unparsable", nil)
	rec.ObserveLatency("payment_flow", 10*time.Millisecond, map[string]string{"network": "base"})

	attempts := rec.counters["payment_attempt"]
	if got := testutil.ToFloat64(attempts.With(prometheus.Labels{"network": "base"})); got != 2 {
		t.Fatalf("base attempts %v", got)
	}
	if got := testutil.ToFloat64(attempts.With(prometheus.Labels{"network": "polygon"})); got != 1 {
		t.Fatalf("polygon attempts %v", got)
	}
	if got := testutil.ToFloat64(rec.counters["payment_challenge_unparsable"].With(prometheus.Labels{})); got != 1 {
		t.Fatalf("unlabeled counter %v", got)
	}
	if got := testutil.CollectAndCount(rec.histograms["payment_flow"]); got != 1 {
		t.Fatalf("histogram series %d", got)
	}
}

func TestPrometheusRecorder_NoEmptyLabelValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg)

	// Mirror the pipelines' real observations: network-scoped payment
	// events, prover-scoped proof events, unlabeled attestation events.
	rec.IncCounter("payment_attempt", map[string]string{"network": "base"})
	rec.IncCounter("proof_generated", map[string]string{"prover": "simulated-v1"})
	rec.IncCounter("attestation_submitted", nil)
	rec.ObserveLatency("proof_generation", time.Millisecond, map[string]string{"prover": "simulated-v1"})

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == "" {
					t.Fatalf("metric %s carries an empty %s label", mf.GetName(), lp.GetName())
				}
			}
		}
	}
}
