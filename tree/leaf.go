package tree

import (
	"fmt"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/core/vector"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// Leaf is the terminal payload of a tree. The set of variants is closed:
// *RegressionLeaf, *GradBoostLeaf and *AdaptiveMultiClassLeaf.
type Leaf interface {
	// Populated reports whether the leaf carries the values prediction needs.
	Populated() bool
	fmt.Stringer
	sealed()
}

// RegressionLeaf keeps the training rows that reached it. Statistics over
// them are computed on demand with Resolve. Data may be nil.
type RegressionLeaf struct {
	Data *dataset.View
}

func (l *RegressionLeaf) Populated() bool { return true }
func (l *RegressionLeaf) sealed()         {}

func (l *RegressionLeaf) String() string {
	if l.Data == nil {
		return "regression (no data)"
	}
	return fmt.Sprintf("regression\nsamples = %d", l.Data.Len())
}

// GradBoostLeaf holds the output vector added (scaled by the learning rate)
// to predictions of rows that reach it.
type GradBoostLeaf struct {
	Output []float64
}

func (l *GradBoostLeaf) Populated() bool { return l.Output != nil }
func (l *GradBoostLeaf) sealed()         {}

func (l *GradBoostLeaf) String() string {
	return fmt.Sprintf("output = %.4g", l.Output)
}

// AdaptiveMultiClassLeaf holds the winning class of the rows that reached
// it and that class's score. Class < 0 marks a leaf that was never filled.
type AdaptiveMultiClassLeaf struct {
	MaxValue float64
	Class    int
}

// NewUnpopulatedAdaptiveMultiClassLeaf returns a leaf with no class yet.
func NewUnpopulatedAdaptiveMultiClassLeaf() *AdaptiveMultiClassLeaf {
	return &AdaptiveMultiClassLeaf{Class: -1}
}

func (l *AdaptiveMultiClassLeaf) Populated() bool { return l.Class >= 0 }
func (l *AdaptiveMultiClassLeaf) sealed()         {}

func (l *AdaptiveMultiClassLeaf) String() string {
	return fmt.Sprintf("class = %d\nscore = %.4g", l.Class, l.MaxValue)
}

// LeafOutput returns the output vector of a gradient boosting leaf. Any other
// variant, or an unpopulated leaf, is an invariant violation.
func LeafOutput(l Leaf) ([]float64, error) {
	gb, ok := l.(*GradBoostLeaf)
	if !ok {
		return nil, errors.NewInvariantViolation("expected a gradient boosting leaf, got %T", l)
	}
	if !gb.Populated() {
		return nil, errors.NewInvariantViolation("gradient boosting leaf has no output")
	}
	return gb.Output, nil
}

// LeafClass returns the class and score of an adaptive multi-class leaf.
func LeafClass(l Leaf) (int, float64, error) {
	amc, ok := l.(*AdaptiveMultiClassLeaf)
	if !ok {
		return 0, 0, errors.NewInvariantViolation("expected an adaptive multi-class leaf, got %T", l)
	}
	if !amc.Populated() {
		return 0, 0, errors.NewInvariantViolation("adaptive multi-class leaf has no class")
	}
	return amc.Class, amc.MaxValue, nil
}

// MeanOutput builds a gradient boosting leaf whose output is the mean label
// vector of the view.
func MeanOutput(v dataset.View) (*GradBoostLeaf, error) {
	mean, err := vector.Average(v.Labels())
	if err != nil {
		return nil, err
	}
	return &GradBoostLeaf{Output: mean}, nil
}

// ClassDistribution returns the fraction of each class among the view's rows.
func ClassDistribution(v dataset.View, nClasses int) ([]float64, error) {
	if v.Len() == 0 {
		return nil, errors.NewInsufficientDataError("tree.ClassDistribution", "leaf has no rows")
	}
	d := v.Dataset()
	dist := make([]float64, nClasses)
	for _, r := range v.Rows() {
		c := d.Class(r)
		if c < 0 || c >= nClasses {
			return nil, errors.NewValueError("tree.ClassDistribution",
				fmt.Sprintf("class %d outside [0, %d)", c, nClasses))
		}
		dist[c]++
	}
	n := float64(v.Len())
	for i := range dist {
		dist[i] /= n
	}
	return dist, nil
}

// MajorityClass builds an adaptive multi-class leaf from the most frequent
// class of the view (lowest class index on ties); MaxValue is its fraction.
func MajorityClass(v dataset.View, nClasses int) (*AdaptiveMultiClassLeaf, error) {
	dist, err := ClassDistribution(v, nClasses)
	if err != nil {
		return nil, err
	}
	leaf := NewUnpopulatedAdaptiveMultiClassLeaf()
	for c, p := range dist {
		if p > leaf.MaxValue || leaf.Class < 0 {
			leaf.Class, leaf.MaxValue = c, p
		}
	}
	return leaf, nil
}
