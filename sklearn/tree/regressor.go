package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/core/model"
	"github.com/YuminosukeSato/mtboost/metrics"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	dtree "github.com/YuminosukeSato/mtboost/tree"
)

const regressorName = "DecisionTreeRegressor"

// DecisionTreeRegressor is a multi-output CART regressor splitting on the
// mean per-target variance. Leaves predict the mean label vector.
type DecisionTreeRegressor struct {
	params
	state *model.StateManager

	root *dtree.Node

	nTargets_           int
	featureImportances_ []float64
}

// NewDecisionTreeRegressor creates a regressor with the squared_error
// criterion, unlimited depth, min_samples_split 2 and min_samples_leaf 1.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		params: defaultParams("squared_error", "sklearn.tree.regressor"),
		state:  model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit grows the tree on X (N×F) and Y (N×T).
func (dt *DecisionTreeRegressor) Fit(X, Y mat.Matrix) (err error) {
	defer errors.Recover(&err, regressorName+".Fit")

	data, err := dataset.FromMatrix(X, Y)
	if err != nil {
		return err
	}
	if data.NumRows() == 0 {
		return errors.NewInsufficientDataError(regressorName+".Fit", "no samples")
	}

	cfg, err := dt.config(dtree.RegressionLeafKind)
	if err != nil {
		return err
	}
	if cfg.Metric.IsClassification() {
		return errors.NewValidationError("criterion", "regressor needs squared_error", dt.criterion)
	}
	builder, err := dtree.NewBuilder(cfg, dtree.WithLogger(dt.logger))
	if err != nil {
		return err
	}
	grown, err := builder.Build(data.All(), data.NumTargets())
	if err != nil {
		return errors.NewModelError(regressorName+".Fit", "tree build", err)
	}
	root, err := dtree.ResolveMean(grown)
	if err != nil {
		return errors.NewModelError(regressorName+".Fit", "leaf resolution", err)
	}

	dt.root = root
	dt.nTargets_ = data.NumTargets()
	dt.featureImportances_ = root.FeatureImportances(data.NumFeatures())
	dt.state.SetFitted(data.NumFeatures(), data.NumTargets(), data.NumRows())

	dt.logger.Info("fit completed",
		log.ModelNameKey, regressorName,
		log.SamplesKey, data.NumRows(),
		log.FeaturesKey, data.NumFeatures(),
		log.TargetsKey, data.NumTargets(),
		log.TreeDepthKey, root.Depth(),
		log.TreeLeavesKey, root.NumLeaves(),
	)
	return nil
}

// Predict returns the leaf mean vector of every row as an N×T matrix.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, regressorName+".Predict")

	rows, cols := X.Dims()
	if err := dt.state.CheckFeatures(regressorName, "Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.NewValueError(regressorName+".Predict", "empty input")
	}
	out := mat.NewDense(rows, dt.nTargets_, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		leaf, err := dt.root.FindLeaf(row)
		if err != nil {
			return nil, err
		}
		output, err := dtree.LeafOutput(leaf)
		if err != nil {
			return nil, err
		}
		out.SetRow(i, output)
	}
	return out, nil
}

// Score returns R² averaged uniformly over the targets.
func (dt *DecisionTreeRegressor) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(Y, pred)
}

// GetFeatureImportances returns the normalised gain per feature.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the fitted tree, or 0 before Fit.
func (dt *DecisionTreeRegressor) GetDepth() int { return dt.root.Depth() }

// GetNLeaves returns the number of leaves, or 0 before Fit.
func (dt *DecisionTreeRegressor) GetNLeaves() int { return dt.root.NumLeaves() }

// Tree returns the fitted tree.
func (dt *DecisionTreeRegressor) Tree() *dtree.Node { return dt.root }

var (
	_ model.Regressor = (*DecisionTreeRegressor)(nil)
	_ model.TreeModel = (*DecisionTreeRegressor)(nil)
)
