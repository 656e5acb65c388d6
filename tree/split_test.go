package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mtboost/core/dataset"
)

func mustDataset(t *testing.T, features [][]float64, labels [][]float64) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New(features, labels)
	require.NoError(t, err)
	return d
}

func mustSingle(t *testing.T, features [][]float64, labels []float64) *dataset.Dataset {
	t.Helper()
	d, err := dataset.NewSingleTarget(features, labels)
	require.NoError(t, err)
	return d
}

func TestParseSplitMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    SplitMetric
		wantErr bool
	}{
		{"gini", Gini, false},
		{"Entropy", Entropy, false},
		{"variance", Variance, false},
		{"squared_error", Variance, false},
		{"hinge", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSplitMetric(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewSplitFinder(SplitMetric(42))
	assert.Error(t, err)
}

func TestFindBestSplit_GiniSeparable(t *testing.T) {
	d := mustSingle(t, [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}, []float64{0, 0, 0, 1, 1, 1})
	sf, err := NewSplitFinder(Gini)
	require.NoError(t, err)

	got := sf.FindBestSplit(d.All(), 2)
	assert.True(t, got.Found())
	assert.InDelta(t, 0.5, got.Gain, 1e-12)
	assert.Equal(t, 0, got.Question.Feature)
	assert.Equal(t, 6.5, got.Question.Threshold)
}

func TestFindBestSplit_GiniPureSubsetHasZeroGain(t *testing.T) {
	d := mustSingle(t, [][]float64{{1, 5}, {2, 4}, {3, 3}, {4, 2}}, []float64{1, 1, 1, 1})
	for _, metric := range []SplitMetric{Gini, Entropy} {
		sf, err := NewSplitFinder(metric)
		require.NoError(t, err)
		got := sf.FindBestSplit(d.All(), 2)
		assert.Equal(t, 0.0, got.Gain, metric.String())
		assert.False(t, got.Found())
	}
}

func TestFindBestSplit_VarianceConstantLabelsHasZeroGain(t *testing.T) {
	d := mustDataset(t,
		[][]float64{{1, 9}, {2, 8}, {3, 7}, {4, 6}},
		[][]float64{{5, -2}, {5, -2}, {5, -2}, {5, -2}})
	sf, err := NewSplitFinder(Variance)
	require.NoError(t, err)

	got := sf.FindBestSplit(d.All(), 2)
	assert.Equal(t, 0.0, got.Gain)
	assert.False(t, got.Found())
}

func TestFindBestSplit_VarianceConstantFractionalLabels(t *testing.T) {
	tests := []struct {
		name  string
		label []float64
		rows  int
	}{
		{"tenth", []float64{0.1}, 10},
		{"non-integer", []float64{123.456}, 5},
		{"large offset", []float64{1e8 + 0.1}, 3},
		{"two targets", []float64{2.7, -1e8 + 0.3}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := make([][]float64, tt.rows)
			labels := make([][]float64, tt.rows)
			for i := range tt.rows {
				features[i] = []float64{float64(i), float64(tt.rows - i)}
				labels[i] = tt.label
			}
			d := mustDataset(t, features, labels)
			sf, err := NewSplitFinder(Variance)
			require.NoError(t, err)

			got := sf.FindBestSplit(d.All(), len(tt.label))
			assert.Equal(t, 0.0, got.Gain)
			assert.False(t, got.Found())

			cfg := DefaultConfig()
			cfg.MaxDepth = 0
			b, err := NewBuilder(cfg)
			require.NoError(t, err)
			root, err := b.Build(d.All(), len(tt.label))
			require.NoError(t, err)
			assert.True(t, root.IsLeaf())
			assert.Equal(t, 1, root.NumLeaves())
		})
	}
}

func TestFindBestSplit_VarianceConstantSubsetOfMixedData(t *testing.T) {
	// rows 2..5 share a fractional label; the first two rows differ
	d := mustDataset(t,
		[][]float64{{0}, {1}, {2}, {3}, {4}, {5}},
		[][]float64{{9.9}, {-3.3}, {0.7}, {0.7}, {0.7}, {0.7}})
	sf, err := NewSplitFinder(Variance)
	require.NoError(t, err)

	assert.True(t, sf.FindBestSplit(d.All(), 1).Found())
	got := sf.FindBestSplit(dataset.NewView(d, []int{2, 3, 4, 5}), 1)
	assert.Equal(t, 0.0, got.Gain)
}

func TestFindBestSplit_VarianceMultiTarget(t *testing.T) {
	// feature 1 separates both targets, feature 0 is noise
	d := mustDataset(t,
		[][]float64{{3, 0}, {1, 0}, {2, 1}, {0, 1}},
		[][]float64{{0, 10}, {0, 10}, {4, 20}, {4, 20}})
	sf, err := NewSplitFinder(Variance)
	require.NoError(t, err)

	got := sf.FindBestSplit(d.All(), 2)
	assert.Equal(t, 1, got.Question.Feature)
	assert.Equal(t, 0.5, got.Question.Threshold)
	// parent variances are 4 and 25, children are pure
	assert.InDelta(t, 14.5, got.Gain, 1e-9)
}

func TestFindBestSplit_TieBreaking(t *testing.T) {
	// identical columns: the lowest feature index wins
	d := mustSingle(t, [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}, []float64{0, 0, 1, 1})
	sf, err := NewSplitFinder(Gini)
	require.NoError(t, err)
	got := sf.FindBestSplit(d.All(), 2)
	assert.Equal(t, 0, got.Question.Feature)

	// two thresholds with equal gain: the lowest wins
	d = mustSingle(t, [][]float64{{1}, {2}, {3}}, []float64{0, 1, 0})
	got = sf.FindBestSplit(d.All(), 2)
	require.True(t, got.Found())
	assert.Equal(t, 1.5, got.Question.Threshold)
}

func TestFindBestSplit_SingleValueColumnHasNoCandidate(t *testing.T) {
	d := mustSingle(t, [][]float64{{7, 1}, {7, 2}, {7, 3}}, []float64{0, 1, 1})
	sf, err := NewSplitFinder(Gini)
	require.NoError(t, err)

	got := sf.FindBestSplit(d.All(), 2)
	assert.Equal(t, 1, got.Question.Feature)

	d = mustSingle(t, [][]float64{{7}, {7}, {7}}, []float64{0, 1, 1})
	assert.False(t, sf.FindBestSplit(d.All(), 2).Found())
}

func TestFindBestSplit_MinSamplesLeaf(t *testing.T) {
	d := mustSingle(t, [][]float64{{1}, {2}, {3}, {4}}, []float64{0, 1, 1, 1})
	sf, err := NewSplitFinder(Gini, WithLeafMinimum(2))
	require.NoError(t, err)

	got := sf.FindBestSplit(d.All(), 2)
	require.True(t, got.Found())
	assert.Equal(t, 2.5, got.Question.Threshold)
}

func TestFindBestSplit_ParallelMatchesSequential(t *testing.T) {
	const rows, features = 600, 40
	X := make([][]float64, rows)
	Y := make([][]float64, rows)
	for i := range X {
		X[i] = make([]float64, features)
		for f := range X[i] {
			X[i][f] = float64((i*(f+3) + f*f) % 97)
		}
		Y[i] = []float64{float64(i%7) + X[i][5]/10, float64(i % 3)}
	}
	d := mustDataset(t, X, Y)

	seq, err := NewSplitFinder(Variance, WithWorkers(1))
	require.NoError(t, err)
	par, err := NewSplitFinder(Variance, WithWorkers(8))
	require.NoError(t, err)

	want := seq.FindBestSplit(d.All(), 2)
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, par.FindBestSplit(d.All(), 2))
	}
}

func TestBoundary(t *testing.T) {
	assert.Equal(t, 1.5, boundary(1, 2))
	lo := 1.0
	hi := 1.0000000000000002
	got := boundary(lo, hi)
	assert.True(t, got >= lo && got < hi)
}
