package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables the consumer
// has always honoured
var envBindings = map[string]string{
	"producer.url":          "PRODUCER_URL",
	"producer.timeout":      "PRODUCER_TIMEOUT",
	"validator.address":     "CVT_SERVER_ADDR",
	"validator.schema_path": "SCHEMA_PATH",
	"validator.schema_id":   "SCHEMA_ID",
	"logging.level":         "LOG_LEVEL",
	"logging.format":        "LOG_FORMAT",
}

// Load loads the configuration from defaults, an optional file, .env and the environment
func Load(configPath string) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("CALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("consumer")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".calc-consumer"))
		}
	}

	// The file is optional unless it was asked for explicitly
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Producer defaults
	v.SetDefault("producer.url", "http://localhost:10001")
	v.SetDefault("producer.timeout", 10*time.Second)
	v.SetDefault("producer.params.first", "x")
	v.SetDefault("producer.params.second", "y")

	// Validator defaults
	v.SetDefault("validator.mode", ModeAuto)
	v.SetDefault("validator.address", "")
	v.SetDefault("validator.schema_path", "./calculator-api.json")
	v.SetDefault("validator.schema_id", "calculator-api")
	v.SetDefault("validator.consumer_id", "calc-consumer")
	v.SetDefault("validator.consumer_version", "1.0.0")
	v.SetDefault("validator.environment", "dev")
	v.SetDefault("validator.register_schema", false)

	// Store defaults
	v.SetDefault("store.type", "none")
	storePath := filepath.Join(".calc-consumer", "interactions.db")
	if home, err := os.UserHomeDir(); err == nil {
		storePath = filepath.Join(home, storePath)
	}
	v.SetDefault("store.path", storePath)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

func normalize(cfg *Config) {
	cfg.Producer.URL = strings.TrimRight(strings.TrimSpace(cfg.Producer.URL), "/")
	cfg.Validator.Mode = strings.ToLower(strings.TrimSpace(cfg.Validator.Mode))
	cfg.Validator.Address = strings.TrimSpace(cfg.Validator.Address)
	cfg.Store.Type = strings.ToLower(strings.TrimSpace(cfg.Store.Type))
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Producer.URL == "" {
		return fmt.Errorf("producer.url is required")
	}
	u, err := url.Parse(cfg.Producer.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid producer.url: %s", cfg.Producer.URL)
	}

	if cfg.Producer.Timeout <= 0 {
		return fmt.Errorf("producer.timeout must be positive")
	}

	if cfg.Producer.Params.First == "" || cfg.Producer.Params.Second == "" {
		return fmt.Errorf("producer.params names must not be empty")
	}
	if cfg.Producer.Params.First == cfg.Producer.Params.Second {
		return fmt.Errorf("producer.params names must differ")
	}

	// Validate validator mode
	validModes := map[string]bool{
		ModeAuto:   true,
		ModeLocal:  true,
		ModeRemote: true,
	}
	if !validModes[cfg.Validator.Mode] {
		return fmt.Errorf("invalid validator.mode: %s (must be 'auto', 'local' or 'remote')", cfg.Validator.Mode)
	}
	if cfg.Validator.SchemaID == "" {
		return fmt.Errorf("validator.schema_id is required")
	}

	// Validate store type
	switch cfg.Store.Type {
	case "none":
	case "bbolt":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for bbolt storage")
		}
	default:
		return fmt.Errorf("invalid store.type: %s", cfg.Store.Type)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
