// Package config loads the server's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the full server configuration.
type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Model struct {
		Path       string `yaml:"path"`
		ImageSize  int    `yaml:"image_size"`
		RuntimeLib string `yaml:"runtime_lib"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Uploads struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"uploads"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	var cfg Config
	cfg.HTTP.Port = 8080
	cfg.Model.Path = "models/potato_classifier.onnx"
	cfg.Model.ImageSize = 224
	cfg.Database.Path = "data/classifications.db"
	cfg.Uploads.Dir = "data/uploads"
	cfg.Uploads.BaseURL = "/uploads"
	cfg.Log.Level = "info"
	return &cfg
}

// Load reads a YAML config file and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Model.ImageSize <= 0 {
		cfg.Model.ImageSize = 224
	}
	return cfg, nil
}
