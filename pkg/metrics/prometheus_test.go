package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRound(t *testing.T) {
	m := NewTrainingMetrics("mtboost")

	m.ObserveRound(10*time.Millisecond, 3, 1, map[string]float64{"training": 0.5, "test": 0.75})
	m.ObserveRound(12*time.Millisecond, 4, 2, map[string]float64{"training": 0.25, "test": 0.5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rounds))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Trees))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.Loss.WithLabelValues("training")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.Loss.WithLabelValues("test")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TreeDepth))
}

func TestObservePredictions(t *testing.T) {
	m := NewTrainingMetrics("mtboost")
	m.ObservePredictions("test", 10)
	m.ObservePredictions("test", 5)
	assert.Equal(t, 15.0, testutil.ToFloat64(m.Predictions.WithLabelValues("test")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *TrainingMetrics
	assert.NotPanics(t, func() {
		m.ObserveRound(time.Second, 1, 1, map[string]float64{"training": 1})
		m.ObservePredictions("test", 1)
	})
}

func TestWriteToTextfile(t *testing.T) {
	m := NewTrainingMetrics("mtboost")
	m.ObserveRound(time.Millisecond, 2, 1, map[string]float64{"training": 1.5})

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteToTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "mtboost_boosting_rounds_total 1")
	assert.Contains(t, string(content), `mtboost_training_loss{dataset="training"} 1.5`)
}

func TestWriteToTextfileBadPath(t *testing.T) {
	m := NewTrainingMetrics("mtboost")
	err := m.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "metrics.prom"))
	assert.Error(t, err)
}
