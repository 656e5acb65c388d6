// Command mtboost trains a multi-target gradient boosted ensemble on .npy
// data, evaluates it on a test set and writes predictions, tree drawings, a
// learning curve plot and Prometheus metrics.
//
// Early stopping monitors the optional validation pair (data.valid_*). Without
// it the test set is monitored, and the reported test error is then not a
// held-out estimate: the "held_out" field of the "test error" line says which.
//
// Usage:
//
//	mtboost -config mtboost.toml [-log-level debug]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/mtboost/core/dataset"
	"github.com/YuminosukeSato/mtboost/ensemble"
	"github.com/YuminosukeSato/mtboost/metrics"
	"github.com/YuminosukeSato/mtboost/pkg/config"
	"github.com/YuminosukeSato/mtboost/pkg/errors"
	"github.com/YuminosukeSato/mtboost/pkg/log"
	pmetrics "github.com/YuminosukeSato/mtboost/pkg/metrics"
	"github.com/YuminosukeSato/mtboost/tree"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("mtboost failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("mtboost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "mtboost.toml", "configuration file (toml, yaml or json)")
	logLevel := fs.String("log-level", "", "override log.level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		conf.Log.Level = *logLevel
		if err := config.Validate(conf); err != nil {
			return err
		}
	}

	if err := log.SetupLoggerTo(stderr, conf.Log.Level); err != nil {
		return err
	}
	level, err := log.ParseLevel(conf.Log.Level)
	if err != nil {
		return err
	}
	log.SetProvider(log.NewZerologProvider(stderr, level))
	logger := log.GetLoggerWithName("mtboost")

	sets, err := loadData(ctx, conf.Data)
	if err != nil {
		return err
	}
	train, test := sets.train, sets.test
	logger.Info("data loaded",
		log.SamplesKey, train.NumRows(),
		log.FeaturesKey, train.NumFeatures(),
		log.TargetsKey, train.NumTargets(),
		"test_samples", test.NumRows(),
		"valid_samples", sets.validRows(),
	)

	if err := os.MkdirAll(conf.Output.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create output directory %s", conf.Output.Dir)
	}

	tm := pmetrics.NewTrainingMetrics("mtboost")
	e, err := ensemble.Train(ctx, train, treeConfig(conf), conf.Boosting.Iterations, conf.Boosting.LearningRate,
		trainOptions(conf, logger, tm, sets)...)
	if err != nil {
		return err
	}

	testError, err := e.CalculateError(test)
	if err != nil {
		return err
	}
	logger.Info("test error",
		log.DatasetKey, "test",
		log.LossKey, testError,
		log.TreeCountKey, e.NumTrees(),
		log.BestIterKey, e.BestIteration(),
		"held_out", sets.valid != nil || conf.Boosting.EarlyStoppingRounds == 0,
	)
	if err := logTargetScores(ctx, e, test, logger); err != nil {
		return err
	}

	return writeOutputs(ctx, conf.Output, e, test, tm, logger)
}

type datasets struct {
	train, valid, test *dataset.Dataset
}

func (s datasets) validRows() int {
	if s.valid == nil {
		return 0
	}
	return s.valid.NumRows()
}

func loadData(ctx context.Context, dc config.DataConfig) (datasets, error) {
	var sets datasets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sets.train, err = dataset.LoadNpyPair(gctx, dc.TrainFeatures, dc.TrainLabels)
		return errors.Wrap(err, "load training data")
	})
	g.Go(func() error {
		var err error
		sets.test, err = dataset.LoadNpyPair(gctx, dc.TestFeatures, dc.TestLabels)
		return errors.Wrap(err, "load test data")
	})
	if dc.ValidFeatures != "" {
		g.Go(func() error {
			var err error
			sets.valid, err = dataset.LoadNpyPair(gctx, dc.ValidFeatures, dc.ValidLabels)
			return errors.Wrap(err, "load validation data")
		})
	}
	if err := g.Wait(); err != nil {
		return datasets{}, err
	}
	return sets, nil
}

// logTargetScores logs RMSE, MAE and R² of every target column on the test set.
func logTargetScores(ctx context.Context, e *ensemble.GradientBoostedEnsemble, test *dataset.Dataset, logger log.Logger) error {
	predictions, err := e.CalculateAllPredictionsContext(ctx, test)
	if err != nil {
		return err
	}
	scores, err := metrics.ScoreColumns(dataset.ToDense(test.Labels()), dataset.ToDense(predictions))
	if err != nil {
		return err
	}
	for j, sc := range scores {
		logger.Info("target score",
			"target", j,
			"rmse", sc.RMSE,
			"mae", sc.MAE,
			log.R2ScoreKey, sc.R2,
		)
	}
	return nil
}

func treeConfig(conf *config.Config) tree.Config {
	cfg := tree.DefaultConfig()
	cfg.MaxDepth = conf.Tree.MaxDepth
	cfg.MinSamplesSplit = conf.Tree.MinSamplesSplit
	cfg.MinSamplesLeaf = conf.Tree.MinSamplesLeaf
	cfg.MinGain = conf.Tree.MinGain
	return cfg
}

// trainOptions registers the validation pair ahead of the test set because
// early stopping monitors the first validation set.
func trainOptions(conf *config.Config, logger log.Logger, tm *pmetrics.TrainingMetrics, sets datasets) []ensemble.Option {
	b := conf.Boosting
	opts := []ensemble.Option{
		ensemble.WithLogger(logger),
		ensemble.WithMetrics(tm),
		ensemble.WithNumWorkers(b.NumWorkers),
	}
	if sets.valid != nil {
		opts = append(opts, ensemble.WithValidationSet("valid", sets.valid))
	}
	opts = append(opts,
		ensemble.WithValidationSet("test", sets.test),
		ensemble.WithCallbacks(ensemble.LogEvaluation(logger, b.LogPeriod)),
	)
	if b.EarlyStoppingRounds > 0 {
		opts = append(opts, ensemble.WithCallbacks(ensemble.EarlyStopping(b.EarlyStoppingRounds, b.MinDelta)))
		if b.TruncateToBest {
			opts = append(opts, ensemble.WithTruncateToBest())
		}
	}
	return opts
}

func writeOutputs(ctx context.Context, oc config.OutputConfig, e *ensemble.GradientBoostedEnsemble, test *dataset.Dataset, tm *pmetrics.TrainingMetrics, logger log.Logger) error {
	if oc.Predictions != "" {
		predictions, err := e.CalculateAllPredictionsContext(ctx, test)
		if err != nil {
			return err
		}
		path := filepath.Join(oc.Dir, oc.Predictions)
		if err := dataset.SaveNpy(path, dataset.ToDense(predictions)); err != nil {
			return err
		}
		logger.Info("predictions written", log.PathKey, path, log.SamplesKey, len(predictions))
	}

	if oc.RenderTrees > 0 {
		format, err := tree.ParseFormat(oc.TreeFormat)
		if err != nil {
			return err
		}
		ext := strings.ToLower(oc.TreeFormat)
		for i, root := range e.Trees()[:min(oc.RenderTrees, e.NumTrees())] {
			path := filepath.Join(oc.Dir, fmt.Sprintf("tree_%02d.%s", i, ext))
			if err := tree.RenderFile(root, format, path); err != nil {
				return err
			}
			logger.Debug("tree rendered", log.PathKey, path, log.TreeDepthKey, root.Depth())
		}
	}

	if oc.LearningCurve != "" {
		path := filepath.Join(oc.Dir, oc.LearningCurve)
		if err := ensemble.SaveLearningCurvePlot(e.LearningCurve(), path); err != nil {
			return err
		}
		logger.Info("learning curve written", log.PathKey, path)
	}

	if oc.Metrics != "" {
		path := filepath.Join(oc.Dir, oc.Metrics)
		if err := tm.WriteToTextfile(path); err != nil {
			return err
		}
		logger.Info("metrics written", log.PathKey, path)
	}
	return nil
}
