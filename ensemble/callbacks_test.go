package ensemble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	"github.com/YuminosukeSato/mtboost/tree"
)

func runCallback(t *testing.T, cb Callback, names []string, scores []map[string]float64) (*CallbackList, int) {
	t.Helper()
	cl := NewCallbackList(cb)
	for it, results := range scores {
		cl.BeforeIteration(it, nil)
		require.NoError(t, cl.AfterIteration(it, nil, names, results))
		if cl.ShouldStop() {
			return cl, it
		}
	}
	return cl, -1
}

func TestEarlyStopping(t *testing.T) {
	names := []string{TrainingSet, "valid"}
	scores := []map[string]float64{
		{TrainingSet: 5, "valid": 3},
		{TrainingSet: 4, "valid": 2},
		{TrainingSet: 3, "valid": 2.5},
		{TrainingSet: 2, "valid": 2.6},
		{TrainingSet: 1, "valid": 1},
	}

	cl, stoppedAt := runCallback(t, EarlyStopping(2, 0), names, scores)
	assert.Equal(t, 3, stoppedAt)
	assert.Equal(t, 1, cl.BestIteration())
}

func TestEarlyStopping_MinDelta(t *testing.T) {
	names := []string{TrainingSet}
	scores := []map[string]float64{
		{TrainingSet: 1.0},
		{TrainingSet: 0.95},
		{TrainingSet: 0.92},
	}

	cl, stoppedAt := runCallback(t, EarlyStopping(2, 0.1), names, scores)
	assert.Equal(t, 2, stoppedAt)
	assert.Equal(t, 0, cl.BestIteration())
}

func TestEarlyStopping_InvalidRounds(t *testing.T) {
	cl := NewCallbackList(EarlyStopping(0, 0))
	err := cl.AfterIteration(0, nil, []string{TrainingSet}, map[string]float64{TrainingSet: 1})
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestEarlyStopping_TruncatesToBest(t *testing.T) {
	// Constant training labels keep every tree at zero output, so the
	// validation error never improves after the first round.
	data := mustDataset(t, [][]float64{{1}, {2}, {3}}, [][]float64{{5}, {5}, {5}})
	valid := mustDataset(t, [][]float64{{1}, {2}}, [][]float64{{7}, {3}})

	e, err := Train(context.Background(), data, tree.DefaultConfig(), 10, 0.5, quiet(),
		WithValidationSet("valid", valid),
		WithCallbacks(EarlyStopping(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, 2, e.NumTrees())
	assert.Equal(t, 0, e.BestIteration())

	e, err = Train(context.Background(), data, tree.DefaultConfig(), 10, 0.5, quiet(),
		WithValidationSet("valid", valid),
		WithCallbacks(EarlyStopping(1, 0)),
		WithTruncateToBest())
	require.NoError(t, err)
	assert.Equal(t, 1, e.NumTrees())
	assert.Equal(t, 0, e.BestIteration())
	assert.Len(t, e.EvalHistory()["valid"], 1)
	assert.InDelta(t, 4.0, e.EvalHistory()["valid"][0], 1e-12)
}

func TestRecordEvaluation(t *testing.T) {
	var history map[string][]float64
	data := synthetic(t, 30, 2, 2)
	valid := synthetic(t, 10, 2, 3)

	e, err := Train(context.Background(), data, tree.DefaultConfig(), 3, 0.1, quiet(),
		WithValidationSet("valid", valid),
		WithCallbacks(RecordEvaluation(&history)))
	require.NoError(t, err)
	assert.Equal(t, e.EvalHistory(), history)
}

func TestLogEvaluation(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	data := synthetic(t, 30, 2, 4)
	valid := synthetic(t, 10, 2, 5)

	_, err := Train(context.Background(), data, tree.DefaultConfig(), 4, 0.1, quiet(),
		WithValidationSet("valid", valid),
		WithCallbacks(LogEvaluation(logger, 2)))
	require.NoError(t, err)

	assert.Equal(t, 4, logger.CountMessages("evaluation"))
	assert.True(t, logger.ContainsField(log.DatasetKey, "valid"))
	assert.True(t, logger.ContainsField(log.IterationKey, float64(3)))
	assert.False(t, logger.ContainsField(log.IterationKey, float64(0)))
}

func TestTimeLimit(t *testing.T) {
	cb := TimeLimit(time.Second)
	start := time.Now()

	env := &CallbackEnv{Iteration: 0, BeginTime: start, EndTime: start.Add(100 * time.Millisecond)}
	require.NoError(t, cb(env))
	assert.False(t, env.StopTraining)

	env.Iteration = 1
	env.EndTime = start.Add(2 * time.Second)
	require.NoError(t, cb(env))
	assert.True(t, env.StopTraining)
}
