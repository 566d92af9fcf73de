package manca

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultLabelAttribute is the node attribute the final cluster id is written to.
const DefaultLabelAttribute = "Cluster"

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// Options is a validated snapshot of a Config
type Options struct {
	Limit          int `validate:"gte=1"`
	DiffusionRange int `validate:"gte=1"`
	MaxClusters    int `validate:"gte=1"`
	Iterations     int `validate:"gte=1"`
	RandomSeed     int64
	KMeansNInit    int     `validate:"gte=1"`
	KMeansMaxIter  int     `validate:"gte=1"`
	KMeansTol      float64 `validate:"gte=0"`
	CountBothEnds  bool
	Parallel       bool
	NumWorkers     int    `validate:"gte=1"`
	LogLevel       string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	ProgressEvery  int    `validate:"gte=1"`
	TrackRounds    bool
	TrackingFile   string `validate:"required_if=TrackRounds true"`
	LabelAttribute string `validate:"required"`
}

var validate = validator.New()

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.limit", 100)
	v.SetDefault("algorithm.diffusion_range", 3)
	v.SetDefault("algorithm.max_clusters", 5)
	v.SetDefault("algorithm.iterations", 1000)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Clustering oracle parameters
	v.SetDefault("kmeans.n_init", 10)
	v.SetDefault("kmeans.max_iterations", 300)
	v.SetDefault("kmeans.tolerance", 1e-4)

	v.SetDefault("sparsity.count_both_endpoints", false)

	// Performance parameters
	v.SetDefault("performance.parallel", true)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)
	v.SetDefault("logging.progress_interval", 50)

	v.SetDefault("analysis.track_rounds", false)
	v.SetDefault("analysis.output_file", "")

	v.SetDefault("output.label_attribute", DefaultLabelAttribute)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Viper exposes the underlying store so callers can bind flags or env vars.
func (c *Config) Viper() *viper.Viper { return c.v }

// Getters for algorithm parameters
func (c *Config) Limit() int          { return c.v.GetInt("algorithm.limit") }
func (c *Config) DiffusionRange() int { return c.v.GetInt("algorithm.diffusion_range") }
func (c *Config) MaxClusters() int    { return c.v.GetInt("algorithm.max_clusters") }
func (c *Config) Iterations() int     { return c.v.GetInt("algorithm.iterations") }
func (c *Config) RandomSeed() int64   { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) KMeansNInit() int         { return c.v.GetInt("kmeans.n_init") }
func (c *Config) KMeansMaxIterations() int { return c.v.GetInt("kmeans.max_iterations") }
func (c *Config) KMeansTolerance() float64 { return c.v.GetFloat64("kmeans.tolerance") }
func (c *Config) CountBothEndpoints() bool { return c.v.GetBool("sparsity.count_both_endpoints") }

func (c *Config) Parallel() bool  { return c.v.GetBool("performance.parallel") }
func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string      { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool  { return c.v.GetBool("logging.enable_progress") }
func (c *Config) ProgressInterval() int { return c.v.GetInt("logging.progress_interval") }

func (c *Config) TrackRounds() bool          { return c.v.GetBool("analysis.track_rounds") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) LabelAttribute() string { return c.v.GetString("output.label_attribute") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Options snapshots the current configuration.
func (c *Config) Options() Options {
	return Options{
		Limit:          c.Limit(),
		DiffusionRange: c.DiffusionRange(),
		MaxClusters:    c.MaxClusters(),
		Iterations:     c.Iterations(),
		RandomSeed:     c.RandomSeed(),
		KMeansNInit:    c.KMeansNInit(),
		KMeansMaxIter:  c.KMeansMaxIterations(),
		KMeansTol:      c.KMeansTolerance(),
		CountBothEnds:  c.CountBothEndpoints(),
		Parallel:       c.Parallel(),
		NumWorkers:     c.NumWorkers(),
		LogLevel:       c.LogLevel(),
		ProgressEvery:  c.ProgressInterval(),
		TrackRounds:    c.TrackRounds(),
		TrackingFile:   c.TrackingOutputFile(),
		LabelAttribute: c.LabelAttribute(),
	}
}

// Validate checks every option against its constraints.
func (c *Config) Validate() error {
	opts := c.Options()
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "manca").Logger()
}
