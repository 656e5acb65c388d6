package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

const sampleTOML = `
[data]
train_features = "x_train.npy"
train_labels = "y_train.npy"
test_features = "x_test.npy"
test_labels = "y_test.npy"

[tree]
max_depth = 4

[boosting]
iterations = 50
learning_rate = 0.05
early_stopping_rounds = 5

[output]
dir = "out"
render_trees = 2
tree_format = "svg"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTOML(t *testing.T) {
	conf, err := Load(writeFile(t, "mtboost.toml", sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "x_train.npy", conf.Data.TrainFeatures)
	assert.Equal(t, "y_test.npy", conf.Data.TestLabels)
	assert.Equal(t, 4, conf.Tree.MaxDepth)
	assert.Equal(t, 2, conf.Tree.MinSamplesSplit)
	assert.Equal(t, 1, conf.Tree.MinSamplesLeaf)
	assert.Equal(t, 50, conf.Boosting.Iterations)
	assert.Equal(t, 0.05, conf.Boosting.LearningRate)
	assert.Equal(t, 5, conf.Boosting.EarlyStoppingRounds)
	assert.Equal(t, 10, conf.Boosting.LogPeriod)
	assert.Equal(t, "out", conf.Output.Dir)
	assert.Equal(t, "predictions.npy", conf.Output.Predictions)
	assert.Equal(t, 2, conf.Output.RenderTrees)
	assert.Equal(t, "svg", conf.Output.TreeFormat)
	assert.Equal(t, "info", conf.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "mtboost.yaml", `
data:
  train_features: a.npy
  train_labels: b.npy
  test_features: c.npy
  test_labels: d.npy
boosting:
  iterations: 3
log:
  level: debug
`)
	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, conf.Boosting.Iterations)
	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, 6, conf.Tree.MaxDepth)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MTBOOST_BOOSTING_LEARNING_RATE", "0.5")
	t.Setenv("MTBOOST_LOG_LEVEL", "warn")
	t.Setenv("MTBOOST_DATA_TEST_LABELS", "override.npy")

	conf, err := Load(writeFile(t, "mtboost.toml", sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, 0.5, conf.Boosting.LearningRate)
	assert.Equal(t, "warn", conf.Log.Level)
	assert.Equal(t, "override.npy", conf.Data.TestLabels)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]string
		field string
	}{
		{name: "zero learning rate", extra: map[string]string{"MTBOOST_BOOSTING_LEARNING_RATE": "0"}, field: "LearningRate"},
		{name: "no iterations", extra: map[string]string{"MTBOOST_BOOSTING_ITERATIONS": "0"}, field: "Iterations"},
		{name: "bad tree format", extra: map[string]string{"MTBOOST_OUTPUT_TREE_FORMAT": "bmp"}, field: "TreeFormat"},
		{name: "bad log level", extra: map[string]string{"MTBOOST_LOG_LEVEL": "trace"}, field: "Level"},
		{name: "valid features without labels", extra: map[string]string{"MTBOOST_DATA_VALID_FEATURES": "v_x.npy"}, field: "ValidLabels"},
		{name: "valid labels without features", extra: map[string]string{"MTBOOST_DATA_VALID_LABELS": "v_y.npy"}, field: "ValidFeatures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.extra {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, "mtboost.toml", sampleTOML))
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestLoadMissingDataPaths(t *testing.T) {
	_, err := Load(writeFile(t, "mtboost.toml", "[boosting]\niterations = 5\n"))
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "TrainFeatures", verrs[0].Field())
	assert.Len(t, verrs, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
