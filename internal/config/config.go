package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, as in EXACTODE_SERVER_PORT.
const EnvPrefix = "EXACTODE"

// Config represents the complete exactode configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	// Port is the TCP port to listen on (default: 8080)
	Port int `mapstructure:"port"`
	// ReadHeaderTimeout bounds reading request headers (default: 5s)
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// ReadTimeout bounds reading the whole request (default: 15s)
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds writing the response (default: 15s)
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout bounds keep-alive connections (default: 60s)
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// MaxBodyBytes limits request bodies (default: 1 MiB)
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	// SolveTimeout bounds one solve; a slower solve is reported as a timeout
	// and its result discarded (default: 10s)
	SolveTimeout time.Duration `mapstructure:"solve_timeout"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn" or "error" (default: "info")
	Level string `mapstructure:"level"`
	// Development switches to the human-readable console encoder
	Development bool `mapstructure:"development"`
}

// BatchConfig controls batch solving
type BatchConfig struct {
	// Concurrency is the number of equations solved at once (default: 4)
	Concurrency int `mapstructure:"concurrency"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	// Format is one of "text", "markdown", "json", "yaml" (default: "text")
	Format string `mapstructure:"format"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxBodyBytes:      1 << 20,
			SolveTimeout:      10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.read_header_timeout", defaults.Server.ReadHeaderTimeout)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)
	v.SetDefault("server.max_body_bytes", defaults.Server.MaxBodyBytes)
	v.SetDefault("server.solve_timeout", defaults.Server.SolveTimeout)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.development", defaults.Logging.Development)

	v.SetDefault("batch.concurrency", defaults.Batch.Concurrency)

	v.SetDefault("output.format", defaults.Output.Format)
}

// Init prepares v: defaults, environment overrides, and the config file
// (cfgFile when set, otherwise exactode.yaml in the working directory or
// ConfigDir). A missing default file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	v.SetConfigName("exactode")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "exactode")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".exactode"
	}
	return filepath.Join(home, ".config", "exactode")
}
