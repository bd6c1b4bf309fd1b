package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStore(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.ObserveStore("get_patient", time.Now(), nil)
	m.ObserveStore("get_patient", time.Now(), errors.New("boom"))
	m.ObserveStore("get_patient", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("get_patient", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("get_patient", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStore("x", time.Now(), nil)
		m.ObserveEvent("visit.created", nil)
		m.ObserveLogin("success")
	})
}
