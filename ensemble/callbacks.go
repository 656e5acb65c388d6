package ensemble

import (
	"math"
	"time"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
)

// TrainingSet is the evaluation name of the training data.
const TrainingSet = "training"

// CallbackEnv contains the environment for callbacks
type CallbackEnv struct {
	Ensemble  *GradientBoostedEnsemble
	Iteration int
	BeginTime time.Time
	EndTime   time.Time
	// EvalNames lists TrainingSet first, then validation sets in the order
	// they were added.
	EvalNames   []string
	EvalResults map[string]float64
	// BestIteration is set by EarlyStopping; -1 until an iteration is judged best.
	BestIteration int
	StopTraining  bool
}

// Callback is called after every boosting round. Setting env.StopTraining
// ends training after the current round; a returned error aborts it.
type Callback func(env *CallbackEnv) error

// RecordEvaluation records evaluation history
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for name, value := range env.EvalResults {
			(*history)[name] = append((*history)[name], value)
		}
		return nil
	}
}

// LogEvaluation logs every evaluation result each period rounds.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if (env.Iteration+1)%period != 0 {
			return nil
		}
		for _, name := range env.EvalNames {
			logger.Info("evaluation",
				log.IterationKey, env.Iteration,
				log.DatasetKey, name,
				log.LossKey, env.EvalResults[name],
			)
		}
		return nil
	}
}

// EarlyStopping stops training once the monitored MSE has not improved by
// more than minDelta for rounds consecutive rounds. The monitored dataset is
// the first validation set, or the training set when there is none.
func EarlyStopping(rounds int, minDelta float64) Callback {
	bestScore := math.Inf(1)
	bestIteration := -1

	return func(env *CallbackEnv) error {
		if rounds < 1 {
			return errors.NewValidationError("early_stopping_rounds", "must be >= 1", rounds)
		}
		if env.Iteration == 0 {
			bestScore = math.Inf(1)
			bestIteration = -1
		}

		monitored := TrainingSet
		if len(env.EvalNames) > 1 {
			monitored = env.EvalNames[1]
		}
		value, ok := env.EvalResults[monitored]
		if !ok {
			return nil
		}

		if value < bestScore-minDelta {
			bestScore = value
			bestIteration = env.Iteration
			env.BestIteration = bestIteration
		}

		if env.Iteration-bestIteration >= rounds {
			errors.Warn(errors.NewEarlyStoppingWarning(env.Iteration+1, bestIteration, bestScore))
			env.StopTraining = true
		}
		return nil
	}
}

// TimeLimit stops training after a specified duration
func TimeLimit(maxDuration time.Duration) Callback {
	var startTime time.Time
	return func(env *CallbackEnv) error {
		if env.Iteration == 0 || startTime.IsZero() {
			startTime = env.BeginTime
		}
		if env.EndTime.Sub(startTime) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}

// CallbackList manages multiple callbacks
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a new callback list
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env: &CallbackEnv{
			EvalResults:   make(map[string]float64),
			BestIteration: -1,
		},
	}
}

// BeforeIteration marks the start of a round.
func (cl *CallbackList) BeforeIteration(iteration int, e *GradientBoostedEnsemble) {
	cl.env.Iteration = iteration
	cl.env.Ensemble = e
	cl.env.BeginTime = time.Now()
}

// AfterIteration calls callbacks after each iteration
func (cl *CallbackList) AfterIteration(iteration int, e *GradientBoostedEnsemble, names []string, evalResults map[string]float64) error {
	cl.env.Iteration = iteration
	cl.env.Ensemble = e
	cl.env.EndTime = time.Now()
	cl.env.EvalNames = names
	cl.env.EvalResults = evalResults

	for _, cb := range cl.callbacks {
		if err := cb(cl.env); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop returns whether training should stop
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}

// BestIteration returns the best iteration recorded by a callback, or -1.
func (cl *CallbackList) BestIteration() int {
	return cl.env.BestIteration
}
