package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecording(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordIdentify("success", 120*time.Millisecond)
	m.RecordIdentify("not_found", 80*time.Millisecond)
	m.RecordExternalCall("classifier", time.Second, errors.New("boom"))
	m.RecordLocalizationDegraded("string")
	m.RecordNarrationUnavailable("timeout")
	m.RecordHistoryOperation("save", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.identifyTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalCallErrors.WithLabelValues("classifier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.localizationDegraded.WithLabelValues("string")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.historyOperationTotal.WithLabelValues("save", "success")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIdentify("success", time.Second)
		m.RecordExternalCall("tts", time.Second, nil)
		m.RecordLocalizationDegraded("record")
		m.RecordNarrationUnavailable("empty")
		m.RecordHistoryOperation("clear", nil)
	})
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
