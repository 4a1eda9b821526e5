package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with an empty home so no
// stray consumer.yaml or .env is picked up
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:10001", cfg.Producer.URL)
	assert.Equal(t, 10*time.Second, cfg.Producer.Timeout)
	assert.Equal(t, ParamsConfig{First: "x", Second: "y"}, cfg.Producer.Params)
	assert.Equal(t, ModeAuto, cfg.Validator.Mode)
	assert.Equal(t, ModeLocal, cfg.Validator.EffectiveMode())
	assert.Equal(t, "./calculator-api.json", cfg.Validator.SchemaPath)
	assert.Equal(t, "calculator-api", cfg.Validator.SchemaID)
	assert.Equal(t, "none", cfg.Store.Type)
	assert.Equal(t, filepath.Join(dir, ".calc-consumer", "interactions.db"), cfg.Store.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PRODUCER_URL", "http://calc.internal:8080/")
	t.Setenv("PRODUCER_TIMEOUT", "3s")
	t.Setenv("CVT_SERVER_ADDR", "cvt.internal:9550")
	t.Setenv("SCHEMA_ID", "calculator-api-v2")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CALC_STORE_TYPE", "bbolt")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://calc.internal:8080", cfg.Producer.URL)
	assert.Equal(t, 3*time.Second, cfg.Producer.Timeout)
	assert.Equal(t, "cvt.internal:9550", cfg.Validator.Address)
	assert.Equal(t, ModeRemote, cfg.Validator.EffectiveMode())
	assert.Equal(t, "calculator-api-v2", cfg.Validator.SchemaID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "bbolt", cfg.Store.Type)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRODUCER_URL=http://from-dotenv:10001\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PRODUCER_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:10001", cfg.Producer.URL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)

	content := `
producer:
  url: http://producer.example:9000
  params:
    first: a
    second: b
validator:
  mode: remote
store:
  type: bbolt
  path: ./data/interactions.db
logging:
  format: json
`
	path := filepath.Join(dir, "consumer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("discovered in working directory", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://producer.example:9000", cfg.Producer.URL)
		assert.Equal(t, ParamsConfig{First: "a", Second: "b"}, cfg.Producer.Params)
		assert.Equal(t, ModeRemote, cfg.Validator.EffectiveMode())
		assert.Equal(t, DefaultRemoteAddress, cfg.Validator.RemoteAddress())
		assert.Equal(t, "./data/interactions.db", cfg.Store.Path)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("explicit path", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "bbolt", cfg.Store.Type)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Producer: ProducerConfig{
				URL:     "http://localhost:10001",
				Timeout: 10 * time.Second,
				Params:  ParamsConfig{First: "x", Second: "y"},
			},
			Validator: ValidatorConfig{Mode: ModeAuto, SchemaID: "calculator-api"},
			Store:     StoreConfig{Type: "none"},
			Logging:   LoggingConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing producer url", func(c *Config) { c.Producer.URL = "" }, "producer.url is required"},
		{"producer url without scheme", func(c *Config) { c.Producer.URL = "localhost:10001" }, "invalid producer.url"},
		{"zero timeout", func(c *Config) { c.Producer.Timeout = 0 }, "producer.timeout must be positive"},
		{"empty param", func(c *Config) { c.Producer.Params.Second = "" }, "must not be empty"},
		{"same params", func(c *Config) { c.Producer.Params.Second = "x" }, "must differ"},
		{"unknown mode", func(c *Config) { c.Validator.Mode = "strict" }, "invalid validator.mode: strict"},
		{"missing schema id", func(c *Config) { c.Validator.SchemaID = "" }, "validator.schema_id is required"},
		{"unknown store", func(c *Config) { c.Store.Type = "redis" }, "invalid store.type: redis"},
		{"bbolt without path", func(c *Config) { c.Store.Type = "bbolt" }, "store.path is required"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging level: trace"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format: xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
