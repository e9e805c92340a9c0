package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrymomot/otpbridge/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileConfig struct {
	Name  string   `env:"CFGTEST_NAME"`
	Count int      `env:"CFGTEST_COUNT"`
	Tags  []string `env:"CFGTEST_TAGS" envSeparator:","`
}

type defaultsConfig struct {
	Backend  string        `env:"CFGTEST_BACKEND" envDefault:"file"`
	Interval time.Duration `env:"CFGTEST_INTERVAL" envDefault:"5s"`
}

type requiredConfig struct {
	Value string `env:"CFGTEST_REQUIRED,required"`
}

type prefixedConfig struct {
	URL string `env:"URL"`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	cfg, err := config.Load[defaultsConfig]()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.Interval)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_BACKEND", "redis")

	cfg, err := config.Load[defaultsConfig]()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Backend)
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_BACKEND", "memory")

	first, err := config.Load[defaultsConfig]()
	require.NoError(t, err)

	t.Setenv("CFGTEST_BACKEND", "redis")
	second, err := config.Load[defaultsConfig]()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	config.ResetCache()
	third, err := config.Load[defaultsConfig]()
	require.NoError(t, err)
	assert.Equal(t, "redis", third.Backend)
}

func TestLoad_EnvFile(t *testing.T) {
	config.ResetCache()
	// Registered so the values loaded from the file are removed afterwards.
	t.Setenv("CFGTEST_NAME", "")
	t.Setenv("CFGTEST_COUNT", "")
	t.Setenv("CFGTEST_TAGS", "")
	for _, k := range []string{"CFGTEST_NAME", "CFGTEST_COUNT", "CFGTEST_TAGS"} {
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := config.Load[fileConfig](config.WithEnvFiles("testdata/.env.test"))
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.Name)
	assert.Equal(t, 7, cfg.Count)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	config.ResetCache()

	_, err := config.Load[fileConfig](config.WithEnvFiles("testdata/missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestLoad_Required(t *testing.T) {
	config.ResetCache()

	_, err := config.Load[requiredConfig]()
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	assert.Panics(t, func() {
		config.MustLoad[requiredConfig]()
	})

	t.Setenv("CFGTEST_REQUIRED", "set")
	cfg := config.MustLoad[requiredConfig]()
	assert.Equal(t, "set", cfg.Value)
}

func TestLoad_Prefix(t *testing.T) {
	config.ResetCache()
	t.Setenv("PRIMARY_URL", "redis://primary")
	t.Setenv("REPLICA_URL", "redis://replica")

	primary, err := config.Load[prefixedConfig](config.WithPrefix("PRIMARY_"))
	require.NoError(t, err)
	replica, err := config.Load[prefixedConfig](config.WithPrefix("REPLICA_"))
	require.NoError(t, err)

	assert.Equal(t, "redis://primary", primary.URL)
	assert.Equal(t, "redis://replica", replica.URL)
}
