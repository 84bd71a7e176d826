package config

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/stroke"
)

func setenv(t *testing.T, key, value string) {
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
store_dir: /tmp/writers
model:
  url: http://localhost:9000
  key: k
  secret: s
  timeout: 5s
dataset:
  divider: 4
  pen_convention: down-flag
sampler:
  bias: 1.5
  max_steps: 300
server:
  jwt_secret: shh
`
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/writers", cfg.StoreDir)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 4.0, cfg.Dataset.Divider)
	assert.Equal(t, 1, cfg.Dataset.PredictionOffset)
	assert.Equal(t, 1.5, cfg.Sampler.Bias)
	assert.Equal(t, 300, cfg.Sampler.MaxSteps)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "shh", cfg.Server.JWTSecret)

	rc := cfg.Remote()
	assert.Equal(t, "http://localhost:9000", rc.URL)

	dc := cfg.DatasetConfig("7")
	assert.Equal(t, stroke.DownFlag, dc.Convention)
	assert.Equal(t, "7", dc.WriterID)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("colour: red\n"), 0600))

	_, err := LoadFile(path)
	assert.True(t, errors.Is(err, errs.Configuration))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Model.URL = "http://model"
	require.NoError(t, cfg.Save(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestFromEnv(t *testing.T) {
	setenv(t, "HANDSYNTH_MODEL_URL", "http://env")
	setenv(t, "HANDSYNTH_DIVIDER", "2.5")
	setenv(t, "HANDSYNTH_MODEL_STUB", "true")

	cfg := Default()
	require.NoError(t, cfg.FromEnv())
	assert.Equal(t, "http://env", cfg.Model.URL)
	assert.Equal(t, 2.5, cfg.Dataset.Divider)
	assert.True(t, cfg.Model.Stub)
}

func TestFromEnvBadValue(t *testing.T) {
	setenv(t, "HANDSYNTH_MAX_STEPS", "lots")
	err := Default().FromEnv()
	assert.True(t, errors.Is(err, errs.Configuration))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	setenv(t, EnvConfig, filepath.Join(dir, "config.yaml"))
	setenv(t, "HANDSYNTH_STORE_DIR", filepath.Join(dir, "writers"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "writers"), cfg.StoreDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"divider", func(c *Config) { c.Dataset.Divider = 0 }},
		{"offset", func(c *Config) { c.Dataset.PredictionOffset = 2 }},
		{"convention", func(c *Config) { c.Dataset.PenConvention = "sideways" }},
		{"batch", func(c *Config) { c.Dataset.BatchSize = 0 }},
		{"bias", func(c *Config) { c.Sampler.Bias = -1 }},
		{"steps", func(c *Config) { c.Sampler.MaxSteps = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.Configuration))
		})
	}
}
