package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()

	mfs, err := g.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRecorder_RecordsRuns(t *testing.T) {
	r := New()
	r.RecordRun("BTC_USDT", "1h", "BUY", 65.5, 66, 20*time.Millisecond)
	r.RecordRun("BTC_USDT", "1h", "WAIT", 50, 40, 10*time.Millisecond)
	r.RecordDegraded("SENTIMENT")
	r.RecordFailure("ETH_USDT")

	assert.Equal(t, 2.0, counterValue(t, r.Gatherer(), "tradegate_analysis_runs_total"))
	assert.Equal(t, 1.0, counterValue(t, r.Gatherer(), "tradegate_degraded_sources_total"))
	assert.Equal(t, 1.0, counterValue(t, r.Gatherer(), "tradegate_analysis_failures_total"))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordRun("BTC_USDT", "1h", "SELL", 30, 70, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradegate_last_confidence{pair="BTC_USDT",timeframe="1h"} 70`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordRun("BTC_USDT", "1h", "BUY", 60, 70, time.Second)
		r.RecordDegraded("PATTERN")
		r.RecordFailure("BTC_USDT")
	})
}
