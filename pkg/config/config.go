package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// ErrConfigNotFound is returned by Load when an explicitly named config file
// does not exist.
var ErrConfigNotFound = errors.New("config file not found")

const envPrefix = "SAUCER"

// Config holds the whole saucer configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
}

// LoggerConfig controls the process-wide logger. Console output goes to
// stderr; LogFile adds a rotating JSON file.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Color      bool   `mapstructure:"color" yaml:"color"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig describes the medium styles are resolved for and how tables
// are measured.
type EngineConfig struct {
	Medium         string  `mapstructure:"medium" yaml:"medium"`
	ViewportWidth  int     `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int     `mapstructure:"viewport_height" yaml:"viewport_height"`
	FontSize       float64 `mapstructure:"font_size" yaml:"font_size"`
	// FontFile is a TrueType font used to measure text. Empty means the
	// bundled Go Regular font.
	FontFile string `mapstructure:"font_file" yaml:"font_file"`
	// UserAgentStylesheet replaces the built-in defaults when set.
	UserAgentStylesheet string   `mapstructure:"user_agent_stylesheet" yaml:"user_agent_stylesheet"`
	UserStylesheets     []string `mapstructure:"user_stylesheets" yaml:"user_stylesheets"`
	// Visited lists URLs that match :visited.
	Visited []string `mapstructure:"visited" yaml:"visited"`
	Workers int      `mapstructure:"workers" yaml:"workers"`
}

// NewDefaultConfig returns the configuration with nothing but defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.color", true)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	// -- Engine --
	v.SetDefault("engine.medium", "screen")
	v.SetDefault("engine.viewport_width", 1024)
	v.SetDefault("engine.viewport_height", 768)
	v.SetDefault("engine.font_size", 16.0)
	v.SetDefault("engine.font_file", "")
	v.SetDefault("engine.user_agent_stylesheet", "")
	v.SetDefault("engine.user_stylesheets", []string{})
	v.SetDefault("engine.visited", []string{})
	v.SetDefault("engine.workers", 1)
}

// Prepare points v at the config file and the SAUCER_ environment. With an
// empty path a saucer.yaml in the working directory is used if present.
func Prepare(v *viper.Viper, path string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("saucer")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads defaults, the config file at path and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := Prepare(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	switch c.Logger.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format))
	}
	if c.Engine.Medium == "" {
		err = multierr.Append(err, errors.New("engine.medium is required"))
	}
	if c.Engine.ViewportWidth <= 0 {
		err = multierr.Append(err, errors.New("engine.viewport_width must be a positive integer"))
	}
	if c.Engine.ViewportHeight < 0 {
		err = multierr.Append(err, errors.New("engine.viewport_height must not be negative"))
	}
	if c.Engine.FontSize <= 0 {
		err = multierr.Append(err, errors.New("engine.font_size must be positive"))
	}
	if c.Engine.Workers <= 0 {
		err = multierr.Append(err, errors.New("engine.workers must be a positive integer"))
	}
	return err
}
