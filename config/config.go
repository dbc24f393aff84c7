package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Model struct {
		ArtifactPath string `yaml:"artifact_path"`
	} `yaml:"model"`
	Training struct {
		DataPath  string        `yaml:"data_path"`
		ModelType string        `yaml:"model_type"`
		TestRatio float64       `yaml:"test_ratio"`
		Seed      int64         `yaml:"seed"`
		C         float64       `yaml:"c"`
		MaxIter   int           `yaml:"max_iter"`
		Tol       float64       `yaml:"tol"`
		Debounce  time.Duration `yaml:"debounce"`
	} `yaml:"training"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log   LogConfig `yaml:"log"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads a YAML config file, then applies .env and environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(&c); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MINDSURVEY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MINDSURVEY_PORT: %w", err)
		}
		c.Http.Port = port
	}
	if v := os.Getenv("MINDSURVEY_ARTIFACT_PATH"); v != "" {
		c.Model.ArtifactPath = v
	}
	if v := os.Getenv("MINDSURVEY_DATA_PATH"); v != "" {
		c.Training.DataPath = v
	}
	if v := os.Getenv("MINDSURVEY_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MINDSURVEY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 5000
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 1 << 20
	}
	if c.Model.ArtifactPath == "" {
		c.Model.ArtifactPath = "final_model.json"
	}
	if c.Training.DataPath == "" {
		c.Training.DataPath = "Survey.csv"
	}
	if c.Training.ModelType == "" {
		c.Training.ModelType = "logistic_regression"
	}
	if c.Training.MaxIter == 0 {
		c.Training.MaxIter = 1000
	}
	if c.Training.Debounce == 0 {
		c.Training.Debounce = 500 * time.Millisecond
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}
