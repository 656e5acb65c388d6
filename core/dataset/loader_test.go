package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLoadNpyPair(t *testing.T) {
	dir := t.TempDir()
	featuresPath := filepath.Join(dir, "x.npy")
	labelsPath := filepath.Join(dir, "y.npy")

	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, SaveNpy(featuresPath, X))

	f, err := os.Create(labelsPath)
	require.NoError(t, err)
	require.NoError(t, npyio.Write(f, []float64{7, 8, 9}))
	require.NoError(t, f.Close())

	d, err := LoadNpyPair(context.Background(), featuresPath, labelsPath)
	require.NoError(t, err)
	assert.Equal(t, 3, d.NumRows())
	assert.Equal(t, 2, d.NumFeatures())
	assert.Equal(t, 1, d.NumTargets())
	assert.Equal(t, []float64{5, 6}, d.Row(2))
	assert.Equal(t, []float64{9}, d.Label(2))
}

func TestLoadNpyMissingFile(t *testing.T) {
	_, err := LoadNpy(filepath.Join(t.TempDir(), "missing.npy"))
	assert.Error(t, err)

	_, err = LoadNpyPair(context.Background(), "missing-x.npy", "missing-y.npy")
	assert.Error(t, err)
}

func TestLoadNpyPairCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadNpyPair(ctx, "x.npy", "y.npy")
	assert.ErrorIs(t, err, context.Canceled)
}
