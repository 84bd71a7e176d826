// Package config loads handsynth settings from a YAML file, a .env file and
// HANDSYNTH_* environment variables, in increasing order of precedence.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/inkstone/handsynth/dataset"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model/remote"
	"github.com/inkstone/handsynth/sampler"
	"github.com/inkstone/handsynth/store"
	"github.com/inkstone/handsynth/stroke"
)

const (
	EnvConfig = "HANDSYNTH_CONFIG"
	fileName  = "config.yaml"
)

type Model struct {
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Secret  string        `yaml:"secret"`
	Timeout time.Duration `yaml:"timeout"`
	// Stub serves generation from the built-in test model instead of a
	// model server.
	Stub bool `yaml:"stub"`
}

type Dataset struct {
	Divider          float64 `yaml:"divider"`
	PredictionOffset int     `yaml:"prediction_offset"`
	PenConvention    string  `yaml:"pen_convention"`
	BatchSize        int64   `yaml:"batch_size"`
}

type Server struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Config is the full configuration.
type Config struct {
	StoreDir string         `yaml:"store_dir"`
	Model    Model          `yaml:"model"`
	Dataset  Dataset        `yaml:"dataset"`
	Sampler  sampler.Config `yaml:"sampler"`
	Server   Server         `yaml:"server"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model: Model{Timeout: 30 * time.Second},
		Dataset: Dataset{
			Divider:          hierarchy.DefaultDivider,
			PredictionOffset: hierarchy.DefaultPredictionOffset,
			PenConvention:    string(stroke.EndFlag),
			BatchSize:        4,
		},
		Sampler: sampler.DefaultConfig(),
		Server:  Server{Port: "8080"},
	}
}

// Path returns the config file location.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".handsynth", fileName), nil
	}
	return filepath.Join(dir, "handsynth", fileName), nil
}

// Load reads .env, the config file if it exists and the environment.
// The result is validated.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Trace.Println("no .env loaded:", err)
	}

	path, err := Path()
	if err != nil {
		return nil, errs.E(errs.Configuration, op, err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.FromEnv(); err != nil {
		return nil, err
	}
	if cfg.StoreDir == "" {
		if cfg.StoreDir, err = store.DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	const op = "config.LoadFile"

	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		log.Trace.Println("config file not found, using defaults:", path)
		return cfg, nil
	}
	if err != nil {
		return nil, errs.E(errs.Configuration, op, errors.Wrapf(err, "can't read %s", path))
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errs.E(errs.Configuration, op, errors.Wrapf(err, "can't parse %s", path))
	}
	log.Trace.Println("config loaded from", path)
	return cfg, nil
}

// Save writes cfg as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0600)
}

// FromEnv applies HANDSYNTH_* overrides.
func (c *Config) FromEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	str("HANDSYNTH_STORE_DIR", &c.StoreDir)
	str("HANDSYNTH_MODEL_URL", &c.Model.URL)
	str("HANDSYNTH_MODEL_KEY", &c.Model.Key)
	str("HANDSYNTH_MODEL_SECRET", &c.Model.Secret)
	str("HANDSYNTH_PEN_CONVENTION", &c.Dataset.PenConvention)
	str("HANDSYNTH_PORT", &c.Server.Port)
	str("HANDSYNTH_JWT_SECRET", &c.Server.JWTSecret)

	parsers := []struct {
		name  string
		parse func(string) error
	}{
		{"HANDSYNTH_MODEL_TIMEOUT", func(v string) (err error) {
			c.Model.Timeout, err = time.ParseDuration(v)
			return
		}},
		{"HANDSYNTH_MODEL_STUB", func(v string) (err error) {
			c.Model.Stub, err = strconv.ParseBool(v)
			return
		}},
		{"HANDSYNTH_DIVIDER", func(v string) (err error) {
			c.Dataset.Divider, err = strconv.ParseFloat(v, 64)
			return
		}},
		{"HANDSYNTH_PREDICTION_OFFSET", func(v string) (err error) {
			c.Dataset.PredictionOffset, err = strconv.Atoi(v)
			return
		}},
		{"HANDSYNTH_BATCH_SIZE", func(v string) (err error) {
			c.Dataset.BatchSize, err = strconv.ParseInt(v, 10, 64)
			return
		}},
		{"HANDSYNTH_BIAS", func(v string) (err error) {
			c.Sampler.Bias, err = strconv.ParseFloat(v, 64)
			return
		}},
		{"HANDSYNTH_MAX_STEPS", func(v string) (err error) {
			c.Sampler.MaxSteps, err = strconv.Atoi(v)
			return
		}},
	}
	for _, p := range parsers {
		v, ok := os.LookupEnv(p.name)
		if !ok || v == "" {
			continue
		}
		if err := p.parse(v); err != nil {
			return errs.E(errs.Configuration, "config.FromEnv", errors.Wrapf(err, "bad %s", p.name))
		}
	}
	return nil
}

// Validate checks the settings that can be checked without I/O.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Dataset.Divider <= 0 {
		return errs.Errorf(errs.Configuration, op, "divider must be positive, got %v", c.Dataset.Divider)
	}
	if c.Dataset.PredictionOffset != 0 && c.Dataset.PredictionOffset != 1 {
		return errs.Errorf(errs.Configuration, op, "prediction offset must be 0 or 1, got %d", c.Dataset.PredictionOffset)
	}
	if _, err := stroke.ParsePenConvention(c.Dataset.PenConvention); err != nil {
		return errs.E(errs.Configuration, op, err)
	}
	if c.Dataset.BatchSize <= 0 {
		return errs.Errorf(errs.Configuration, op, "batch size must be positive, got %d", c.Dataset.BatchSize)
	}
	if c.Sampler.Bias < 0 {
		return errs.Errorf(errs.Configuration, op, "bias must not be negative, got %v", c.Sampler.Bias)
	}
	if c.Sampler.MaxSteps <= 0 {
		return errs.Errorf(errs.Configuration, op, "max steps must be positive, got %d", c.Sampler.MaxSteps)
	}
	if c.Model.Timeout < 0 {
		return errs.Errorf(errs.Configuration, op, "negative model timeout")
	}
	return nil
}

// Remote returns the model client settings.
func (c *Config) Remote() remote.Config {
	return remote.Config{
		URL:     c.Model.URL,
		Key:     c.Model.Key,
		Secret:  c.Model.Secret,
		Timeout: c.Model.Timeout,
	}
}

// DatasetConfig returns build settings for writer.
func (c *Config) DatasetConfig(writer string) dataset.Config {
	return dataset.Config{
		WriterID:         writer,
		Convention:       stroke.PenConvention(c.Dataset.PenConvention),
		Divider:          c.Dataset.Divider,
		PredictionOffset: c.Dataset.PredictionOffset,
		BatchSize:        c.Dataset.BatchSize,
	}
}
