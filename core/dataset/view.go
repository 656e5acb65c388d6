package dataset

import (
	"cmp"
	"slices"
)

// FeatureValue pairs a feature value with the index of the row it came from.
type FeatureValue struct {
	Value float64
	Row   int
}

// SortByFeature returns (value, row) pairs of one column sorted ascending by
// value. Equal values keep ascending row order.
func SortByFeature(features [][]float64, column int) []FeatureValue {
	out := make([]FeatureValue, len(features))
	for i, row := range features {
		out[i] = FeatureValue{Value: row[column], Row: i}
	}
	sortFeatureValues(out)
	return out
}

func sortFeatureValues(values []FeatureValue) {
	slices.SortStableFunc(values, func(a, b FeatureValue) int {
		return cmp.Compare(a.Value, b.Value)
	})
}

// View is a read-only subset of a Dataset given by row indices. Views are
// what tree nodes hold; they never copy feature or label data.
type View struct {
	data *Dataset
	rows []int
}

// All returns a view over every row of d.
func (d *Dataset) All() View {
	rows := make([]int, d.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return View{data: d, rows: rows}
}

// NewView returns a view of d restricted to rows.
func NewView(d *Dataset, rows []int) View {
	return View{data: d, rows: rows}
}

// Dataset returns the underlying dataset.
func (v View) Dataset() *Dataset { return v.data }

// Rows returns the row indices of the view.
func (v View) Rows() []int { return v.rows }

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.rows) }

// Labels returns the label vectors of the rows in view order.
func (v View) Labels() [][]float64 {
	out := make([][]float64, len(v.rows))
	for k, r := range v.rows {
		out[k] = v.data.labels[r]
	}
	return out
}

// SortedByFeature returns (value, row) pairs for column over the view's rows,
// sorted ascending by value, ties by row index. Row holds the dataset row index.
func (v View) SortedByFeature(column int) []FeatureValue {
	rows := slices.Clone(v.rows)
	slices.Sort(rows)
	out := make([]FeatureValue, len(rows))
	for k, r := range rows {
		out[k] = FeatureValue{Value: v.data.features[r][column], Row: r}
	}
	sortFeatureValues(out)
	return out
}

// Partition splits the view into rows for which matches is false and rows
// for which it is true, preserving order.
func (v View) Partition(matches func(row []float64) bool) (falseView, trueView View) {
	var f, t []int
	for _, r := range v.rows {
		if matches(v.data.features[r]) {
			t = append(t, r)
		} else {
			f = append(f, r)
		}
	}
	return View{data: v.data, rows: f}, View{data: v.data, rows: t}
}
