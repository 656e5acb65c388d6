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

const classifierName = "DecisionTreeClassifier"

// DecisionTreeClassifier is a CART classifier. The fitted tree keeps the
// training rows of every leaf: PredictProba reads their class distribution,
// Predict uses a copy of the tree resolved to majority-class leaves.
type DecisionTreeClassifier struct {
	params
	state *model.StateManager

	root     *dtree.Node // leaves retain their training subsets
	resolved *dtree.Node // leaves hold the majority class

	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
}

// NewDecisionTreeClassifier creates a classifier with the gini criterion,
// unlimited depth, min_samples_split 2 and min_samples_leaf 1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		params: defaultParams("gini", "sklearn.tree.classifier"),
		state:  model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit grows the tree on X (N×F) and integer class labels y (N×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, classifierName+".Fit")

	if _, c := y.Dims(); c != 1 {
		return errors.NewDimensionError(classifierName+".Fit", 1, c, 2)
	}
	data, err := dataset.FromMatrix(X, y)
	if err != nil {
		return err
	}
	nClasses, err := data.Classes()
	if err != nil {
		return err
	}

	cfg, err := dt.config(dtree.RegressionLeafKind)
	if err != nil {
		return err
	}
	if !cfg.Metric.IsClassification() {
		return errors.NewValidationError("criterion", "classifier needs gini or entropy", dt.criterion)
	}
	builder, err := dtree.NewBuilder(cfg, dtree.WithLogger(dt.logger))
	if err != nil {
		return err
	}
	root, err := builder.Build(data.All(), nClasses)
	if err != nil {
		return errors.NewModelError(classifierName+".Fit", "tree build", err)
	}
	resolved, err := dtree.ResolveMajority(root, nClasses)
	if err != nil {
		return errors.NewModelError(classifierName+".Fit", "leaf resolution", err)
	}

	dt.root = root
	dt.resolved = resolved
	dt.nClasses_ = nClasses
	dt.nFeatures_ = data.NumFeatures()
	dt.featureImportances_ = root.FeatureImportances(data.NumFeatures())
	dt.state.SetFitted(data.NumFeatures(), 1, data.NumRows())

	dt.logger.Info("fit completed",
		log.ModelNameKey, classifierName,
		log.SamplesKey, data.NumRows(),
		log.FeaturesKey, data.NumFeatures(),
		log.ClassesKey, nClasses,
		log.TreeDepthKey, root.Depth(),
		log.TreeLeavesKey, root.NumLeaves(),
	)
	return nil
}

// Predict returns the majority class of each row's leaf as an N×1 matrix.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, classifierName+".Predict")

	rows, cols := X.Dims()
	if err := dt.state.CheckFeatures(classifierName, "Predict", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.NewValueError(classifierName+".Predict", "empty input")
	}
	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		leaf, err := dt.resolved.FindLeaf(row)
		if err != nil {
			return nil, err
		}
		class, _, err := dtree.LeafClass(leaf)
		if err != nil {
			return nil, err
		}
		out.Set(i, 0, float64(class))
	}
	return out, nil
}

// PredictProba returns the class distribution of each row's leaf as an
// N×nClasses matrix.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, classifierName+".PredictProba")

	rows, cols := X.Dims()
	if err := dt.state.CheckFeatures(classifierName, "PredictProba", cols); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errors.NewValueError(classifierName+".PredictProba", "empty input")
	}
	out := mat.NewDense(rows, dt.nClasses_, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		leaf, err := dt.root.FindLeaf(row)
		if err != nil {
			return nil, err
		}
		rl, ok := leaf.(*dtree.RegressionLeaf)
		if !ok || rl.Data == nil {
			return nil, errors.NewInvariantViolation("fitted leaf retained no training rows: %T", leaf)
		}
		dist, err := dtree.ClassDistribution(*rl.Data, dt.nClasses_)
		if err != nil {
			return nil, err
		}
		out.SetRow(i, dist)
	}
	return out, nil
}

// Score returns the accuracy on (X, y), or 0 when prediction fails.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		dt.logger.Error("score failed", err, log.ModelNameKey, classifierName)
		return 0
	}
	acc, err := metrics.AccuracyScore(y, pred)
	if err != nil {
		dt.logger.Error("score failed", err, log.ModelNameKey, classifierName)
		return 0
	}
	return acc
}

// GetFeatureImportances returns the normalised gain per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the fitted tree, or 0 before Fit.
func (dt *DecisionTreeClassifier) GetDepth() int {
	return dt.root.Depth()
}

// GetNLeaves returns the number of leaves of the fitted tree, or 0 before Fit.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.root == nil {
		return 0
	}
	return dt.root.NumLeaves()
}

// NClasses returns the number of classes seen by Fit.
func (dt *DecisionTreeClassifier) NClasses() int { return dt.nClasses_ }

// Tree returns the fitted tree whose leaves hold the majority class.
func (dt *DecisionTreeClassifier) Tree() *dtree.Node { return dt.resolved }

var (
	_ model.Classifier      = (*DecisionTreeClassifier)(nil)
	_ model.TreeModel       = (*DecisionTreeClassifier)(nil)
	_ model.ParameterGetter = (*DecisionTreeClassifier)(nil)
	_ model.ParameterSetter = (*DecisionTreeClassifier)(nil)
)
