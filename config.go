package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	qhttp "healthrisk/http"
	"healthrisk/logging"
)

type Config struct {
	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`
	HTTP    qhttp.ServerConfig `yaml:"http"`
	Log     logging.Config     `yaml:"log"`
	Targets struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"targets"`
}

func defaultConfig() *Config {
	config := &Config{
		HTTP: qhttp.DefaultServerConfig(),
		Log:  logging.Config{Level: "info", Format: "console"},
	}
	config.Models.Dir = "./models"
	config.Targets.CacheSize = 16
	return config
}

// loadConfig reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func loadConfig(path string, getenv func(string) string) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(config, getenv); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config, getenv func(string) string) error {
	if dir := getenv("MODEL_DIR"); dir != "" {
		config.Models.Dir = dir
	}
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT %q", port)
		}
		config.HTTP.Port = p
	}
	return nil
}
