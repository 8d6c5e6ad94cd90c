// Package config loads shaclreport settings from a YAML file, .env and the
// environment. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/meb/store"
	"github.com/duynguyendang/shaclreport/pkg/report"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SHACLREPORT_"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
	Store   StoreConfig  `yaml:"store"`
	Report  ReportConfig `yaml:"report"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // console or json
	Output      string `yaml:"output"` // stdout or stderr
	File        string `yaml:"file"`
	MaxSize     int    `yaml:"max_size"` // megabytes
	MaxBackups  int    `yaml:"max_backups"`
	MaxAge      int    `yaml:"max_age"` // days
	Compress    bool   `yaml:"compress"`
	ServiceName string `yaml:"service_name"`
}

// StoreConfig tunes the per-dataset stores.
type StoreConfig struct {
	Profile       string `yaml:"profile"`
	LowMemory     bool   `yaml:"low_memory"`
	MaxOpenStores int    `yaml:"max_open_stores"`
	ReadOnly      bool   `yaml:"read_only"`
}

// ReportConfig holds the predicates the report is built from.
type ReportConfig struct {
	ResultPredicate          string `yaml:"result_predicate"`
	FocusNodePredicate       string `yaml:"focus_node_predicate"`
	CheckedPropertyPredicate string `yaml:"checked_property_predicate"`
	DisplayLimit             int    `yaml:"display_limit"`
	BatchSize                int    `yaml:"batch_size"`
}

// ReportSettings converts the section into the report package's Config.
func (r ReportConfig) ReportSettings() report.Config {
	return report.Config{
		FocusNodePredicate:       r.FocusNodePredicate,
		CheckedPropertyPredicate: r.CheckedPropertyPredicate,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	rc := report.DefaultConfig()
	return &Config{
		DataDir: "./data",
		Server: ServerConfig{
			Host:           "",
			Port:           8080,
			MaxUploadBytes: 32 << 20,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Output:      "stdout",
			MaxSize:     100,
			MaxBackups:  3,
			MaxAge:      28,
			ServiceName: "shaclreport",
		},
		Store: StoreConfig{
			Profile:       store.ProfileSafeServing,
			MaxOpenStores: 10,
		},
		Report: ReportConfig{
			ResultPredicate:          report.PredicateResult,
			FocusNodePredicate:       rc.FocusNodePredicate,
			CheckedPropertyPredicate: rc.CheckedPropertyPredicate,
			DisplayLimit:             20,
			BatchSize:                1000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then .env, then SHACLREPORT_* variables. A missing .env is ignored.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidConfig, EnvPrefix, name, v)
		}
		*dst = b
		return nil
	}

	str("DATA_DIR", &c.DataDir)
	str("HOST", &c.Server.Host)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("STORE_PROFILE", &c.Store.Profile)
	str("RESULT_PREDICATE", &c.Report.ResultPredicate)
	str("FOCUS_NODE_PREDICATE", &c.Report.FocusNodePredicate)
	str("CHECKED_PROPERTY_PREDICATE", &c.Report.CheckedPropertyPredicate)

	// PORT without prefix is honoured for container platforms.
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, set := lookup(EnvPrefix + "PORT"); !set {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: PORT=%q is not an integer", ErrInvalidConfig, v)
			}
			c.Server.Port = n
		}
	}

	for _, err := range []error{
		integer("PORT", &c.Server.Port),
		integer("MAX_OPEN_STORES", &c.Store.MaxOpenStores),
		integer("DISPLAY_LIMIT", &c.Report.DisplayLimit),
		integer("BATCH_SIZE", &c.Report.BatchSize),
		boolean("READ_ONLY", &c.Store.ReadOnly),
		boolean("LOW_MEMORY", &c.Store.LowMemory),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate fails fast on settings that would break at runtime.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "data_dir must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "server.max_upload_bytes must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	switch c.Log.Output {
	case "", "stdout", "stderr":
	default:
		problems = append(problems, fmt.Sprintf("log.output %q must be stdout or stderr", c.Log.Output))
	}
	switch c.Store.Profile {
	case "", store.ProfileIngestHeavy, store.ProfileSafeServing, store.ProfileLowMem:
	default:
		problems = append(problems, fmt.Sprintf("store.profile %q is unknown", c.Store.Profile))
	}
	if c.Store.MaxOpenStores <= 0 {
		problems = append(problems, "store.max_open_stores must be positive")
	}
	if c.Report.ResultPredicate == "" {
		problems = append(problems, "report.result_predicate must not be empty")
	}
	if c.Report.DisplayLimit <= 0 {
		problems = append(problems, "report.display_limit must be positive")
	}
	if c.Report.BatchSize <= 0 {
		problems = append(problems, "report.batch_size must be positive")
	}
	if err := c.Report.ReportSettings().Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
