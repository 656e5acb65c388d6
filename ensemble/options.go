package ensemble

import (
	"github.com/YuminosukeSato/mtboost/core/dataset"
	pmetrics "github.com/YuminosukeSato/mtboost/pkg/metrics"
	"github.com/YuminosukeSato/mtboost/pkg/log"
)

type validationSet struct {
	name string
	data *dataset.Dataset
}

type trainOptions struct {
	logger         log.Logger
	callbacks      []Callback
	validation     []validationSet
	metrics        *pmetrics.TrainingMetrics
	numWorkers     int
	truncateToBest bool
}

// Option configures Train.
type Option func(*trainOptions)

// WithLogger sets the logger for training progress. Trees built during
// training log through the same logger.
func WithLogger(l log.Logger) Option {
	return func(o *trainOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCallbacks appends callbacks run after every boosting round.
func WithCallbacks(cbs ...Callback) Option {
	return func(o *trainOptions) {
		o.callbacks = append(o.callbacks, cbs...)
	}
}

// WithValidationSet evaluates the ensemble on data after every round and
// reports the MSE under name. The first validation set drives EarlyStopping.
func WithValidationSet(name string, data *dataset.Dataset) Option {
	return func(o *trainOptions) {
		o.validation = append(o.validation, validationSet{name: name, data: data})
	}
}

// WithMetrics records round statistics into m.
func WithMetrics(m *pmetrics.TrainingMetrics) Option {
	return func(o *trainOptions) {
		o.metrics = m
	}
}

// WithNumWorkers bounds the goroutines used for row updates, split search
// and prediction. Values <= 0 mean runtime.NumCPU(); 1 runs sequentially.
func WithNumWorkers(n int) Option {
	return func(o *trainOptions) {
		o.numWorkers = n
	}
}

// WithTruncateToBest drops the trees grown after the best iteration found by
// EarlyStopping.
func WithTruncateToBest() Option {
	return func(o *trainOptions) {
		o.truncateToBest = true
	}
}
