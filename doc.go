// Package mtboost trains multi-target gradient boosted regression trees in Go.
//
// Every tree in the ensemble predicts all targets at once: a split is chosen
// by the total variance reduction summed over the target columns and a leaf
// stores one output per target. Training starts from the per-target mean of
// the labels and fits each new tree to the current residuals.
//
// # Quick Start
//
//	data, err := dataset.New(features, labels)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := tree.DefaultConfig()
//	cfg.MaxDepth = 4
//
//	model, err := ensemble.Train(ctx, data, cfg, 100, 0.1,
//	    ensemble.WithValidationSet("test", test),
//	    ensemble.WithCallbacks(ensemble.EarlyStopping(10, 0)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mse, err := model.CalculateError(test)
//
// # Packages
//
//   - core/dataset: row-major datasets, views and .npy loading
//   - tree: split finding, tree building, leaves and graphviz rendering
//   - ensemble: boosting, prediction, callbacks and learning curves
//   - metrics: MSE, RMSE, MAE, R² and accuracy
//   - sklearn/tree, sklearn/ensemble: scikit-learn style estimators
//   - pkg/config, pkg/log, pkg/errors, pkg/metrics: ambient infrastructure
//   - cmd/mtboost: command line trainer driven by a TOML config
//
// # scikit-learn Compatibility
//
//	reg := ensemble.NewGradientBoostingRegressor(
//	    ensemble.WithNEstimators(200),
//	    ensemble.WithLearningRate(0.05),
//	    ensemble.WithNJobs(-1),
//	)
//	if err := reg.Fit(X, Y); err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := reg.Predict(X)
//
// Training and prediction are parallel and deterministic: the same inputs give
// bit-identical results for any number of workers.
package mtboost
