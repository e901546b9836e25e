package metrics

import (
	"testing"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunStarted(domain.TriggerCron)
	m.RunStarted(domain.TriggerCron)
	m.RunFinished(domain.TriggerCron, 3*time.Second)
	m.AccountProcessed(domain.AccountStatusOK)
	m.AccountProcessed(domain.AccountStatusError)
	m.AccountProcessed(domain.AccountStatusOK)
	m.RecommendationsGenerated(4)
	m.RecommendationsGenerated(0)
	m.RecommendationsExecuted("auto", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("cron")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.accounts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.accounts.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.generated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.executed.WithLabelValues("auto")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RunStarted(domain.TriggerHTTP)
		m.RunFinished(domain.TriggerHTTP, time.Second)
		m.AccountProcessed(domain.AccountStatusOK)
		m.RecommendationsGenerated(1)
		m.RecommendationsExecuted("api", 1)
	})
}
