// Package metrics は学習過程をPrometheusの指標として公開します。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// TrainingMetrics はブースティング学習の指標を独立したレジストリにまとめたものです。
type TrainingMetrics struct {
	registry *prometheus.Registry

	Rounds        prometheus.Counter     // 完了したブースティングラウンド数
	RoundDuration prometheus.Histogram   // 1ラウンドあたりの所要時間
	Loss          *prometheus.GaugeVec   // データセットごとの最新MSE (label: dataset)
	Trees         prometheus.Gauge       // アンサンブル内の木の本数
	TreeDepth     prometheus.Histogram   // 構築された木の深さ
	Predictions   *prometheus.CounterVec // 予測した行数 (label: source)
}

// NewTrainingMetrics はレジストリを初期化し、Goランタイム指標と学習指標を登録します。
func NewTrainingMetrics(namespace string) *TrainingMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &TrainingMetrics{registry: reg}

	m.Rounds = m.newCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "boosting_rounds_total",
		Help:      "Total number of completed boosting rounds",
	})
	m.RoundDuration = m.newHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "boosting_round_duration_seconds",
		Help:      "Wall time of a single boosting round",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})
	m.Loss = m.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "training_loss",
		Help:      "Latest mean squared error per evaluated dataset",
	}, []string{"dataset"})
	m.Trees = m.newGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ensemble_trees",
		Help:      "Number of trees in the ensemble",
	})
	m.TreeDepth = m.newHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tree_depth",
		Help:      "Depth of each built tree",
		Buckets:   prometheus.LinearBuckets(0, 1, 16),
	})
	m.Predictions = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predicted_rows_total",
		Help:      "Total number of rows passed through the ensemble",
	}, []string{"source"})

	return m
}

// Registry は内部のレジストリを返します。
func (m *TrainingMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewCounterVec は計数器を作成してレジストリに登録します。
func (m *TrainingMetrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec はゲージを作成してレジストリに登録します。
func (m *TrainingMetrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

func (m *TrainingMetrics) newCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

func (m *TrainingMetrics) newGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

func (m *TrainingMetrics) newHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	m.registry.MustRegister(h)
	return h
}

// ObserveRound は1ラウンド分の結果を記録します。nilレシーバでは何もしません。
func (m *TrainingMetrics) ObserveRound(elapsed time.Duration, depth, trees int, losses map[string]float64) {
	if m == nil {
		return
	}
	m.Rounds.Inc()
	m.RoundDuration.Observe(elapsed.Seconds())
	m.TreeDepth.Observe(float64(depth))
	m.Trees.Set(float64(trees))
	for name, loss := range losses {
		m.Loss.WithLabelValues(name).Set(loss)
	}
}

// ObservePredictions は予測した行数を加算します。
func (m *TrainingMetrics) ObservePredictions(source string, rows int) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(source).Add(float64(rows))
}

// WriteToTextfile はnode_exporterのtextfile形式で全指標を書き出します。
func (m *TrainingMetrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
