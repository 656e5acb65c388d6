package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByFeature(t *testing.T) {
	features := [][]float64{{10, 2, 1}, {6, 2, 2}, {1, 2, 3}}

	got := SortByFeature(features, 0)
	assert.Equal(t, []FeatureValue{{1, 2}, {6, 1}, {10, 0}}, got)

	// equal values keep row order
	got = SortByFeature(features, 1)
	assert.Equal(t, []FeatureValue{{2, 0}, {2, 1}, {2, 2}}, got)
}

func TestViewSortedByFeature(t *testing.T) {
	d, err := NewSingleTarget([][]float64{{5}, {3}, {9}, {3}}, []float64{0, 1, 2, 3})
	require.NoError(t, err)

	v := NewView(d, []int{3, 2, 1})
	assert.Equal(t, []FeatureValue{{3, 1}, {3, 3}, {9, 2}}, v.SortedByFeature(0))
	assert.Equal(t, []int{3, 2, 1}, v.Rows(), "sorting must not reorder the view")
}

func TestViewPartition(t *testing.T) {
	d, err := NewSingleTarget([][]float64{{1}, {4}, {2}, {8}}, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	all := d.All()
	assert.Equal(t, 4, all.Len())

	f, tr := all.Partition(func(row []float64) bool { return row[0] <= 2 })
	assert.Equal(t, []int{1, 3}, f.Rows())
	assert.Equal(t, []int{0, 2}, tr.Rows())
	assert.Equal(t, [][]float64{{1}, {3}}, tr.Labels())
	assert.Same(t, d, tr.Dataset())
}
