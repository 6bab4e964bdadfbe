package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the demo's own configuration — not part of the pool/task
// packages, which take their Config values programmatically. It can be
// loaded from a YAML file (matching the teacher's streamline config
// pattern) with environment variables as overrides (matching the
// teacher's chainlens backend config pattern), env winning.
type Config struct {
	HTTPPort       int    `yaml:"http_port"`
	RedisURL       string `yaml:"redis_url"`
	QueueName      string `yaml:"queue_name"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	MaxQueueSize   int    `yaml:"max_queue_size"`
}

func defaultConfig() Config {
	return Config{
		HTTPPort:       8080,
		RedisURL:       "redis://localhost:6379/0",
		QueueName:      "aiopool-demo",
		MaxConcurrency: 4,
		MaxQueueSize:   40,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.HTTPPort = getEnvInt("AIOPOOL_HTTP_PORT", cfg.HTTPPort)
	cfg.RedisURL = getEnv("AIOPOOL_REDIS_URL", cfg.RedisURL)
	cfg.QueueName = getEnv("AIOPOOL_QUEUE_NAME", cfg.QueueName)
	cfg.MaxConcurrency = getEnvInt("AIOPOOL_MAX_CONCURRENCY", cfg.MaxConcurrency)
	cfg.MaxQueueSize = getEnvInt("AIOPOOL_MAX_QUEUE_SIZE", cfg.MaxQueueSize)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
