package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ecospect/diversity"
)

// config carries one run's settings. Values are resolved in order of
// precedence: command-line flags, then the YAML config file, then the
// built-in defaults.
type config struct {
	Input         string    `yaml:"input"`
	Similarity    string    `yaml:"similarity"`
	MemmapSpecies string    `yaml:"memmap_species"`
	Features      string    `yaml:"features"`
	Metric        string    `yaml:"metric"`
	Viewpoints    []float64 `yaml:"viewpoints"`
	Output        string    `yaml:"output"`
	ChunkSize     int       `yaml:"chunk_size"`
	Workers       int       `yaml:"workers"`
	SharedMemory  bool      `yaml:"shared_memory"`
	LogLevel      string    `yaml:"log_level"`
	LogFormat     string    `yaml:"log_format"`
}

func defaultConfig() *config {
	return &config{
		Metric:    "cosine",
		Workers:   runtime.NumCPU(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// loadConfig reads a YAML config file.
func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// merge overlays every non-zero field of other onto c.
func (c *config) merge(other *config) {
	if other.Input != "" {
		c.Input = other.Input
	}
	if other.Similarity != "" {
		c.Similarity = other.Similarity
	}
	if other.MemmapSpecies != "" {
		c.MemmapSpecies = other.MemmapSpecies
	}
	if other.Features != "" {
		c.Features = other.Features
	}
	if other.Metric != "" {
		c.Metric = other.Metric
	}
	if len(other.Viewpoints) > 0 {
		c.Viewpoints = other.Viewpoints
	}
	if other.Output != "" {
		c.Output = other.Output
	}
	if other.ChunkSize > 0 {
		c.ChunkSize = other.ChunkSize
	}
	if other.Workers > 0 {
		c.Workers = other.Workers
	}
	if other.SharedMemory {
		c.SharedMemory = true
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

func (c *config) validate() error {
	if c.Input == "" {
		return errors.New("an input counts file is required")
	}
	if len(c.Viewpoints) == 0 {
		return errors.New("at least one viewpoint is required")
	}
	if c.Similarity != "" && c.Features != "" {
		return errors.New("configure at most one similarity source")
	}
	if c.MemmapSpecies != "" && c.Similarity == "" {
		return errors.New("memmap-species requires a similarity file")
	}
	if c.Features == "" {
		switch strings.ToLower(c.Metric) {
		case "", "cosine":
		default:
			return errors.New("metric requires a features file")
		}
	}
	if c.Workers < 0 {
		return errors.New("workers must be non-negative")
	}
	return nil
}

// resolveConfig builds the effective config from defaults, the optional
// config file and any flags set on the command line.
func resolveConfig(cmd *cobra.Command) (*config, error) {
	cfg := defaultConfig()

	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.merge(loaded)
	}

	if flags.Changed("input") {
		cfg.Input, _ = flags.GetString("input")
	}
	if flags.Changed("similarity") {
		cfg.Similarity, _ = flags.GetString("similarity")
	}
	if flags.Changed("memmap-species") {
		cfg.MemmapSpecies, _ = flags.GetString("memmap-species")
	}
	if flags.Changed("features") {
		cfg.Features, _ = flags.GetString("features")
	}
	if flags.Changed("metric") {
		cfg.Metric, _ = flags.GetString("metric")
	}
	if flags.Changed("viewpoint") {
		cfg.Viewpoints, _ = flags.GetFloat64Slice("viewpoint")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("shared-memory") {
		cfg.SharedMemory, _ = flags.GetBool("shared-memory")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config) (*diversity.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		return diversity.NewJSONLogger(level), nil
	case "", "text":
		return diversity.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
}
