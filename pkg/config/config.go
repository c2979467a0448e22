// Package config loads optipath settings from defaults, a YAML file, the
// OPTIPATH_* environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/parallel"
	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
	"github.com/dd0wney/cluso-optipath/pkg/validation"
)

// EnvPrefix prefixes every environment override, e.g. OPTIPATH_ANALYSIS_REACH_THRESHOLD_KM.
const EnvPrefix = "OPTIPATH"

// Config represents the optipath configuration
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// AnalysisConfig holds the placement parameters
type AnalysisConfig struct {
	ReachThresholdKm float64 `mapstructure:"reach_threshold_km" yaml:"reach_threshold_km"`
	ResidualPolicy   string  `mapstructure:"residual_policy" yaml:"residual_policy"`
	Workers          int     `mapstructure:"workers" yaml:"workers"`
}

// OutputConfig selects where and how the report is written. An empty path
// means stdout; an empty format means "from the path's extension".
type OutputConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"`
}

// JournalConfig enables the result journal when Dir is set
type JournalConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// PostgresConfig enables the PostgreSQL result store when URL is set
type PostgresConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	MaxConns int    `mapstructure:"max_conns" yaml:"max_conns"`
}

// MetricsConfig enables the Prometheus textfile when TextfilePath is set
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			ReachThresholdKm: pathanalysis.DefaultReachThresholdKm,
			ResidualPolicy:   pathanalysis.ResidualCanonical.String(),
			Workers:          1,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Loader layers configuration sources over DefaultConfig.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides wired.
func NewLoader() *Loader {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("analysis.reach_threshold_km", def.Analysis.ReachThresholdKm)
	v.SetDefault("analysis.residual_policy", def.Analysis.ResidualPolicy)
	v.SetDefault("analysis.workers", def.Analysis.Workers)
	v.SetDefault("output.path", def.Output.Path)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("journal.dir", def.Journal.Dir)
	v.SetDefault("postgres.url", def.Postgres.URL)
	v.SetDefault("postgres.max_conns", def.Postgres.MaxConns)
	v.SetDefault("metrics.textfile_path", def.Metrics.TextfilePath)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind to %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file and returns the merged, validated config. With
// an empty path it looks for optipath.yaml in the working directory and
// $HOME/.config/optipath, and a missing file is not an error.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("optipath")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.config/optipath")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	policies := []string{
		pathanalysis.ResidualCanonical.String(),
		pathanalysis.ResidualSkipCompensatedTail.String(),
	}
	levels := []string{"debug", "info", "warn", "warning", "error"}

	return validation.NewConfigValidator("optipath").
		PositiveFloat("analysis.reach_threshold_km", c.Analysis.ReachThresholdKm).
		OneOf("analysis.residual_policy", strings.ToLower(c.Analysis.ResidualPolicy), policies).
		RangeInt("analysis.workers", c.Analysis.Workers, 1, parallel.MaxWorkers).
		When(c.Output.Format != "", func(cv *validation.ConfigValidator) {
			cv.OneOf("output.format", strings.ToLower(c.Output.Format), report.FormatNames())
		}).
		When(c.Postgres.URL != "", func(cv *validation.ConfigValidator) {
			cv.RangeInt("postgres.max_conns", c.Postgres.MaxConns, 1, 256)
		}).
		OneOf("logging.level", strings.ToLower(c.Logging.Level), levels).
		Validate()
}

// ReportFormat returns the configured format. With none set it follows the
// output file's extension, and CSV otherwise.
func (c *Config) ReportFormat() (report.Format, error) {
	if c.Output.Format == "" {
		return report.FormatFromPath(c.Output.Path, report.FormatCSV), nil
	}
	return report.ParseFormat(c.Output.Format)
}

// AnalyzerOptions translates the analysis section into pathanalysis options.
func (c *Config) AnalyzerOptions(logger logging.Logger, rec pathanalysis.Recorder) ([]pathanalysis.Option, error) {
	policy, err := pathanalysis.ParseResidualPolicy(c.Analysis.ResidualPolicy)
	if err != nil {
		return nil, err
	}
	opts := []pathanalysis.Option{
		pathanalysis.WithReachThreshold(c.Analysis.ReachThresholdKm),
		pathanalysis.WithResidualPolicy(policy),
		pathanalysis.WithWorkers(c.Analysis.Workers),
		pathanalysis.WithLogger(logger),
	}
	if rec != nil {
		opts = append(opts, pathanalysis.WithRecorder(rec))
	}
	return opts, nil
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
