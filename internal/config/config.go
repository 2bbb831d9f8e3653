package config

import (
	"fmt"
	"os"

	"data-preparation/internal/workerpool"

	"gopkg.in/yaml.v3"
)

// DatasetConfig describes one configured dataset reader.
type DatasetConfig struct {
	Type           string  `yaml:"type"` // "ghc", "jigsaw" or "twitter"
	DatasetDir     string  `yaml:"dataset_dir"`
	DatasetName    string  `yaml:"dataset_name"`
	ValSplitRatio  float64 `yaml:"val_split_ratio"`
	TestSplitRatio float64 `yaml:"test_split_ratio"` // only for sources without a test file
}

// ObjectStoreConfig points at an S3-compatible bucket the exported corpus is uploaded to.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"` // SQLite path or PostgreSQL URL
		Type string `yaml:"type"` // "sqlite" or "postgres"
	} `yaml:"database"`

	Pool workerpool.Config `yaml:"pool"`

	// Readers in the order their output is unioned
	Datasets []DatasetConfig `yaml:"datasets"`

	Export struct {
		Dir         string             `yaml:"dir"` // empty disables export
		ObjectStore *ObjectStoreConfig `yaml:"object_store"`
	} `yaml:"export"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8003"
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}

	if c.Database.Path == "" {
		c.Database.Path = "./data/runs.db"
	}

	for i := range c.Datasets {
		c.Datasets[i].DatasetDir = os.ExpandEnv(c.Datasets[i].DatasetDir)
		if c.Datasets[i].DatasetName == "" {
			c.Datasets[i].DatasetName = c.Datasets[i].Type
		}
	}

	// Expand environment variables in credentials
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	if store := c.Export.ObjectStore; store != nil {
		store.AccessKey = os.ExpandEnv(store.AccessKey)
		store.SecretKey = os.ExpandEnv(store.SecretKey)
	}
}

// Validate checks values the defaults cannot fill in.
func (c *Config) Validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if len(c.Datasets) == 0 {
		return fmt.Errorf("at least one dataset is required")
	}
	names := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if d.DatasetDir == "" {
			return fmt.Errorf("dataset %q: dataset_dir is required", d.DatasetName)
		}
		if names[d.DatasetName] {
			return fmt.Errorf("dataset %q configured twice", d.DatasetName)
		}
		names[d.DatasetName] = true
	}
	if store := c.Export.ObjectStore; store != nil && (store.Endpoint == "" || store.Bucket == "") {
		return fmt.Errorf("export.object_store requires endpoint and bucket")
	}
	return nil
}
