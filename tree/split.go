package tree

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/core/parallel"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// SplitMetric selects the impurity measure a SplitFinder optimises.
type SplitMetric int

const (
	// Gini impurity over class labels.
	Gini SplitMetric = iota
	// Entropy (information gain) over class labels.
	Entropy
	// Variance of the label vectors, averaged over targets.
	Variance
)

func (m SplitMetric) String() string {
	switch m {
	case Gini:
		return "gini"
	case Entropy:
		return "entropy"
	case Variance:
		return "variance"
	default:
		return "unknown"
	}
}

// IsClassification reports whether the metric works on class labels.
func (m SplitMetric) IsClassification() bool {
	return m == Gini || m == Entropy
}

// ParseSplitMetric accepts the metric names used in configuration files and
// estimator options.
func ParseSplitMetric(s string) (SplitMetric, error) {
	switch strings.ToLower(s) {
	case "gini":
		return Gini, nil
	case "entropy", "log_loss":
		return Entropy, nil
	case "variance", "mse", "squared_error":
		return Variance, nil
	default:
		return 0, errors.NewValidationError("metric", "must be one of gini, entropy, variance", s)
	}
}

// BestSplitResult is the outcome of a split search. A Gain <= 0 means no
// useful split exists and Question is meaningless.
type BestSplitResult struct {
	Gain     float64
	Question Question
}

// Found reports whether the result describes a split with positive gain.
func (r BestSplitResult) Found() bool {
	return r.Gain > 0
}

// featureSplit is the best candidate on a single feature.
type featureSplit struct {
	gain      float64
	threshold float64
	ok        bool
}

// scanFunc sweeps one sorted feature column. k is the number of classes or
// targets; minLeaf the smallest allowed child.
type scanFunc func(sorted []dataset.FeatureValue, d *dataset.Dataset, k, minLeaf int) featureSplit

// minParallelWork is rows*features below which the search stays sequential.
const minParallelWork = 1 << 14

// SplitFinder searches for the best (feature, threshold) question. The
// metric's scan function is resolved once at construction.
type SplitFinder struct {
	metric         SplitMetric
	scan           scanFunc
	minSamplesLeaf int
	numWorkers     int
}

// FinderOption configures a SplitFinder.
type FinderOption func(*SplitFinder)

// WithLeafMinimum skips candidates that leave fewer than n rows on a side.
func WithLeafMinimum(n int) FinderOption {
	return func(sf *SplitFinder) {
		if n > 0 {
			sf.minSamplesLeaf = n
		}
	}
}

// WithWorkers bounds the goroutines used across features. 1 disables
// parallelism, <= 0 uses every CPU.
func WithWorkers(n int) FinderOption {
	return func(sf *SplitFinder) { sf.numWorkers = n }
}

// NewSplitFinder returns a finder for metric.
func NewSplitFinder(metric SplitMetric, opts ...FinderOption) (*SplitFinder, error) {
	sf := &SplitFinder{metric: metric, minSamplesLeaf: 1}
	switch metric {
	case Gini:
		sf.scan = classificationScan(giniImpurity)
	case Entropy:
		sf.scan = classificationScan(entropyImpurity)
	case Variance:
		sf.scan = varianceScan
	default:
		return nil, errors.NewValidationError("metric", "unknown split metric", int(metric))
	}
	for _, opt := range opts {
		opt(sf)
	}
	return sf, nil
}

// Metric returns the metric the finder was built with.
func (sf *SplitFinder) Metric() SplitMetric { return sf.metric }

// FindBestSplit returns the highest-gain question over all features of the
// view. numberOfClassesOrTargets is the class count for classification
// metrics and the target count for Variance. Ties go to the lowest feature
// index, then the lowest threshold. The result does not depend on the
// number of workers.
func (sf *SplitFinder) FindBestSplit(view dataset.View, numberOfClassesOrTargets int) BestSplitResult {
	if view.Len() < 2 {
		return BestSplitResult{}
	}
	d := view.Dataset()
	nFeatures := d.NumFeatures()

	results := make([]featureSplit, nFeatures)
	scanRange := func(start, end int) {
		for f := start; f < end; f++ {
			results[f] = sf.scan(view.SortedByFeature(f), d, numberOfClassesOrTargets, sf.minSamplesLeaf)
		}
	}
	if view.Len()*nFeatures < minParallelWork {
		scanRange(0, nFeatures)
	} else {
		parallel.Parallelize(nFeatures, sf.numWorkers, scanRange)
	}

	var best BestSplitResult
	for f, r := range results {
		if r.ok && r.gain > best.Gain {
			best = BestSplitResult{Gain: r.gain, Question: Question{Feature: f, Threshold: r.threshold}}
		}
	}
	return best
}

// boundary returns the threshold between two distinct sorted values such
// that lo <= t < hi.
func boundary(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi || t < lo {
		return lo
	}
	return t
}

func giniImpurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 0.0
	for _, c := range counts {
		p := c / n
		s += p * p
	}
	return 1 - s
}

func entropyImpurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c > 0 {
			p := c / n
			h -= p * math.Log2(p)
		}
	}
	return h
}

// classificationScan sweeps a sorted column keeping running class counts on
// the true (<=) side.
func classificationScan(impurity func(counts []float64, n float64) float64) scanFunc {
	return func(sorted []dataset.FeatureValue, d *dataset.Dataset, k, minLeaf int) featureSplit {
		n := len(sorted)
		total := make([]float64, k)
		for _, fv := range sorted {
			total[d.Class(fv.Row)]++
		}
		parent := impurity(total, float64(n))

		left := make([]float64, k)
		right := make([]float64, k)
		copy(right, total)

		var best featureSplit
		for i := 0; i < n-1; i++ {
			c := d.Class(sorted[i].Row)
			left[c]++
			right[c]--
			if sorted[i].Value == sorted[i+1].Value {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			gain := parent -
				float64(nl)/float64(n)*impurity(left, float64(nl)) -
				float64(nr)/float64(n)*impurity(right, float64(nr))
			if !best.ok || gain > best.gain {
				best = featureSplit{gain: gain, threshold: boundary(sorted[i].Value, sorted[i+1].Value), ok: true}
			}
		}
		return best
	}
}

// meanVariance is the per-target population variance averaged over targets.
// sum and sq hold per-target sums and sums of squares over n rows.
func meanVariance(sum, sq []float64, n float64) float64 {
	if n == 0 || len(sum) == 0 {
		return 0
	}
	v := 0.0
	for j := range sum {
		m := sum[j] / n
		if c := sq[j]/n - m*m; c > 0 {
			v += c
		}
	}
	return v / float64(len(sum))
}

// referenceLabel returns the label of the lowest row index in sorted. Sums
// are taken over y - ref, so a constant column accumulates exact zeros and
// the reference is the same for every feature of a node.
func referenceLabel(sorted []dataset.FeatureValue, d *dataset.Dataset) []float64 {
	row := sorted[0].Row
	for _, fv := range sorted[1:] {
		row = min(row, fv.Row)
	}
	return d.Label(row)
}

func varianceScan(sorted []dataset.FeatureValue, d *dataset.Dataset, t, minLeaf int) featureSplit {
	n := len(sorted)
	ref := referenceLabel(sorted, d)
	totalSum := make([]float64, t)
	totalSq := make([]float64, t)
	for _, fv := range sorted {
		for j, y := range d.Label(fv.Row) {
			y -= ref[j]
			totalSum[j] += y
			totalSq[j] += y * y
		}
	}
	parent := meanVariance(totalSum, totalSq, float64(n))
	if parent == 0 {
		return featureSplit{}
	}

	leftSum := make([]float64, t)
	leftSq := make([]float64, t)
	rightSum := make([]float64, t)
	rightSq := make([]float64, t)

	var best featureSplit
	for i := 0; i < n-1; i++ {
		for j, y := range d.Label(sorted[i].Row) {
			y -= ref[j]
			leftSum[j] += y
			leftSq[j] += y * y
		}
		if sorted[i].Value == sorted[i+1].Value {
			continue
		}
		nl, nr := i+1, n-i-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		for j := range rightSum {
			rightSum[j] = totalSum[j] - leftSum[j]
			rightSq[j] = totalSq[j] - leftSq[j]
		}
		gain := parent -
			float64(nl)/float64(n)*meanVariance(leftSum, leftSq, float64(nl)) -
			float64(nr)/float64(n)*meanVariance(rightSum, rightSq, float64(nr))
		if !best.ok || gain > best.gain {
			best = featureSplit{gain: gain, threshold: boundary(sorted[i].Value, sorted[i+1].Value), ok: true}
		}
	}
	return best
}
