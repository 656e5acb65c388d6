// Package dataset holds the row-major training data consumed by tree
// building and boosting, read-only row subsets (views) of it, and loaders
// from gonum matrices and .npy files.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// Dataset is N rows of F features paired with N label vectors of length T.
// Classification data is single-target with non-negative integer labels.
// A Dataset is never mutated after construction.
type Dataset struct {
	features  [][]float64
	labels    [][]float64
	nFeatures int
	nTargets  int
}

// New validates the shapes and builds a dataset. The slices are retained,
// not copied. An empty dataset (no rows) is valid here; operations that need
// rows reject it.
func New(features, labels [][]float64) (*Dataset, error) {
	if len(features) != len(labels) {
		return nil, errors.NewDimensionError("dataset.New", len(features), len(labels), 0)
	}
	d := &Dataset{features: features, labels: labels}
	if len(features) == 0 {
		return d, nil
	}

	d.nFeatures = len(features[0])
	d.nTargets = len(labels[0])
	if d.nTargets == 0 {
		return nil, errors.NewValueError("dataset.New", "label vectors must have at least one target")
	}
	for i := range features {
		if len(features[i]) != d.nFeatures {
			return nil, errors.Wrapf(errors.NewDimensionError("dataset.New", d.nFeatures, len(features[i]), 1), "row %d", i)
		}
		if len(labels[i]) != d.nTargets {
			return nil, errors.Wrapf(errors.NewDimensionError("dataset.New", d.nTargets, len(labels[i]), 2), "row %d", i)
		}
	}
	return d, nil
}

// NewSingleTarget builds a dataset with one scalar label per row.
func NewSingleTarget(features [][]float64, labels []float64) (*Dataset, error) {
	wrapped := make([][]float64, len(labels))
	for i, y := range labels {
		wrapped[i] = []float64{y}
	}
	return New(features, wrapped)
}

// FromMatrix copies X (N×F) and Y (N×T) into a dataset.
func FromMatrix(X, Y mat.Matrix) (*Dataset, error) {
	xr, _ := X.Dims()
	yr, _ := Y.Dims()
	if xr != yr {
		return nil, errors.NewDimensionError("dataset.FromMatrix", xr, yr, 0)
	}
	return New(matrixRows(X), matrixRows(Y))
}

// FeaturesFromMatrix copies the rows of X.
func FeaturesFromMatrix(X mat.Matrix) [][]float64 {
	return matrixRows(X)
}

func matrixRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	backing := make([]float64, r*c)
	for i := 0; i < r; i++ {
		row := backing[i*c : (i+1)*c : (i+1)*c]
		for j := 0; j < c; j++ {
			row[j] = m.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

// NumRows returns N.
func (d *Dataset) NumRows() int { return len(d.features) }

// NumFeatures returns F.
func (d *Dataset) NumFeatures() int { return d.nFeatures }

// NumTargets returns T.
func (d *Dataset) NumTargets() int { return d.nTargets }

// Row returns the feature vector of row i. Callers must not modify it.
func (d *Dataset) Row(i int) []float64 { return d.features[i] }

// Label returns the label vector of row i. Callers must not modify it.
func (d *Dataset) Label(i int) []float64 { return d.labels[i] }

// Class returns the first label component of row i as a class index.
func (d *Dataset) Class(i int) int { return int(d.labels[i][0]) }

// Features returns all feature rows.
func (d *Dataset) Features() [][]float64 { return d.features }

// Labels returns all label vectors.
func (d *Dataset) Labels() [][]float64 { return d.labels }

// WithLabels returns a dataset sharing d's features with new labels.
func (d *Dataset) WithLabels(labels [][]float64) (*Dataset, error) {
	return New(d.features, labels)
}

// Classes validates that the dataset is single-target with non-negative
// integer labels and returns the number of classes (max label + 1).
func (d *Dataset) Classes() (int, error) {
	if d.NumRows() == 0 {
		return 0, errors.NewInsufficientDataError("dataset.Classes", "dataset has no rows")
	}
	if d.nTargets != 1 {
		return 0, errors.NewDimensionError("dataset.Classes", 1, d.nTargets, 2)
	}
	maxClass := 0
	for i, y := range d.labels {
		v := y[0]
		if v < 0 || v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, errors.Wrapf(errors.NewValueError("dataset.Classes",
				"class labels must be non-negative integers"), "row %d has label %v", i, v)
		}
		if int(v) > maxClass {
			maxClass = int(v)
		}
	}
	return maxClass + 1, nil
}

// CheckRow returns a DimensionError when row does not have F features.
func (d *Dataset) CheckRow(op string, row []float64) error {
	if len(row) != d.nFeatures {
		return errors.NewDimensionError(op, d.nFeatures, len(row), 1)
	}
	return nil
}
