package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Producer  ProducerConfig  `mapstructure:"producer"`
	Validator ValidatorConfig `mapstructure:"validator"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProducerConfig holds the calculator service connection details
type ProducerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Params  ParamsConfig  `mapstructure:"params"`
}

// ParamsConfig names the two operand query parameters
type ParamsConfig struct {
	First  string `mapstructure:"first"`
	Second string `mapstructure:"second"`
}

// ValidatorConfig controls contract validation
type ValidatorConfig struct {
	Mode            string `mapstructure:"mode"`
	Address         string `mapstructure:"address"`
	SchemaPath      string `mapstructure:"schema_path"`
	SchemaID        string `mapstructure:"schema_id"`
	ConsumerID      string `mapstructure:"consumer_id"`
	ConsumerVersion string `mapstructure:"consumer_version"`
	Environment     string `mapstructure:"environment"`
	RegisterSchema  bool   `mapstructure:"register_schema"`
}

// StoreConfig selects where recorded interactions are kept
type StoreConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Validator modes
const (
	ModeAuto   = "auto"
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// DefaultRemoteAddress is dialed in remote mode when no address is configured
const DefaultRemoteAddress = "localhost:9550"

// EffectiveMode resolves auto to remote when a service address is set
func (v ValidatorConfig) EffectiveMode() string {
	if v.Mode != ModeAuto {
		return v.Mode
	}
	if v.Address != "" {
		return ModeRemote
	}
	return ModeLocal
}

// RemoteAddress returns the validation service address, falling back to the default
func (v ValidatorConfig) RemoteAddress() string {
	if v.Address != "" {
		return v.Address
	}
	return DefaultRemoteAddress
}
