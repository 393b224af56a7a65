package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string `yaml:"addr"`
	DataDir        string `yaml:"data_dir"`
	StructuresFile string `yaml:"structures_file"`

	Push struct {
		Subscriber      string `yaml:"subscriber"`
		VAPIDPublicKey  string `yaml:"vapid_public_key"`
		VAPIDPrivateKey string `yaml:"vapid_private_key"`
	} `yaml:"push"`

	ShutdownTimeoutSecs int `yaml:"shutdown_timeout_secs"`
}

func defaultConfig() *Config {
	cfg := &Config{
		Addr:                ":8080",
		DataDir:             "data",
		ShutdownTimeoutSecs: 10,
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the yaml config file when present and layers environment
// overrides on top. A missing file is not an error; everything has a default.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.StructuresFile = getEnv("STRUCTURES_FILE", cfg.StructuresFile)
	cfg.Push.Subscriber = getEnv("PUSH_SUBSCRIBER", cfg.Push.Subscriber)
	cfg.Push.VAPIDPublicKey = getEnv("VAPID_PUBLIC_KEY", cfg.Push.VAPIDPublicKey)
	cfg.Push.VAPIDPrivateKey = getEnv("VAPID_PRIVATE_KEY", cfg.Push.VAPIDPrivateKey)
	cfg.ShutdownTimeoutSecs = getEnvAsInt("SHUTDOWN_TIMEOUT_SECS", cfg.ShutdownTimeoutSecs)

	return cfg, nil
}
