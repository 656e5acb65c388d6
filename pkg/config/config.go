// Package config はCLIの設定ファイル（TOML/YAML/JSON）を読み込み、検証します。
// すべてのキーは環境変数 MTBOOST_<SECTION>_<KEY> で上書きできます。
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// EnvPrefix は環境変数による上書きの接頭辞
const EnvPrefix = "MTBOOST"

// Config はCLI全体の設定
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Tree     TreeConfig     `mapstructure:"tree"`
	Boosting BoostingConfig `mapstructure:"boosting"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// DataConfig は学習・テスト用の .npy ファイルのパス
type DataConfig struct {
	TrainFeatures string `mapstructure:"train_features" validate:"required"`
	TrainLabels   string `mapstructure:"train_labels"   validate:"required"`
	TestFeatures  string `mapstructure:"test_features"  validate:"required"`
	TestLabels    string `mapstructure:"test_labels"    validate:"required"`
	// 任意。指定すると early stopping はテストではなくこの組を監視する。
	ValidFeatures string `mapstructure:"valid_features" validate:"required_with=ValidLabels"`
	ValidLabels   string `mapstructure:"valid_labels"   validate:"required_with=ValidFeatures"`
}

// TreeConfig は各木の成長パラメータ。max_depth 0 は無制限。
type TreeConfig struct {
	MaxDepth        int     `mapstructure:"max_depth"         validate:"min=0"`
	MinSamplesSplit int     `mapstructure:"min_samples_split" validate:"min=1"`
	MinSamplesLeaf  int     `mapstructure:"min_samples_leaf"  validate:"min=1"`
	MinGain         float64 `mapstructure:"min_gain"          validate:"min=0"`
}

// BoostingConfig はブースティングのパラメータ。early_stopping_rounds 0 で早期終了を無効化。
type BoostingConfig struct {
	Iterations          int     `mapstructure:"iterations"            validate:"min=1"`
	LearningRate        float64 `mapstructure:"learning_rate"         validate:"gt=0"`
	EarlyStoppingRounds int     `mapstructure:"early_stopping_rounds" validate:"min=0"`
	MinDelta            float64 `mapstructure:"min_delta"             validate:"min=0"`
	TruncateToBest      bool    `mapstructure:"truncate_to_best"`
	NumWorkers          int     `mapstructure:"num_workers"           validate:"min=0"`
	LogPeriod           int     `mapstructure:"log_period"            validate:"min=1"`
}

// OutputConfig は成果物の出力先。ファイル名が空の成果物は出力しない。
type OutputConfig struct {
	Dir           string `mapstructure:"dir"            validate:"required"`
	Predictions   string `mapstructure:"predictions"`
	LearningCurve string `mapstructure:"learning_curve"`
	Metrics       string `mapstructure:"metrics"`
	RenderTrees   int    `mapstructure:"render_trees"   validate:"min=0"`
	TreeFormat    string `mapstructure:"tree_format"    validate:"oneof=png svg jpg jpeg dot"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// setDefaults は全キーの既定値を登録する（AutomaticEnvは既知のキーのみ上書きするため）
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.train_features", "")
	v.SetDefault("data.train_labels", "")
	v.SetDefault("data.test_features", "")
	v.SetDefault("data.test_labels", "")
	v.SetDefault("data.valid_features", "")
	v.SetDefault("data.valid_labels", "")

	v.SetDefault("tree.max_depth", 6)
	v.SetDefault("tree.min_samples_split", 2)
	v.SetDefault("tree.min_samples_leaf", 1)
	v.SetDefault("tree.min_gain", 0.0)

	v.SetDefault("boosting.iterations", 100)
	v.SetDefault("boosting.learning_rate", 0.1)
	v.SetDefault("boosting.early_stopping_rounds", 0)
	v.SetDefault("boosting.min_delta", 0.0)
	v.SetDefault("boosting.truncate_to_best", false)
	v.SetDefault("boosting.num_workers", 0)
	v.SetDefault("boosting.log_period", 10)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.predictions", "predictions.npy")
	v.SetDefault("output.learning_curve", "learning_curve.png")
	v.SetDefault("output.metrics", "metrics.prom")
	v.SetDefault("output.render_trees", 0)
	v.SetDefault("output.tree_format", "png")

	v.SetDefault("log.level", "info")
}

// Load は設定ファイルを読み込み、環境変数で上書きし、検証した結果を返す。
// ファイル形式は拡張子から判定する。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := Validate(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate は構造体タグに従って設定を検証する
func Validate(conf *Config) error {
	if err := validator.New().Struct(conf); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}
