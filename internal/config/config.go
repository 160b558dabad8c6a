package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers for stored results.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Quiz struct {
		TTL     string `yaml:"ttl"`
		Catalog string `yaml:"catalog"`
	} `yaml:"quiz"`
	Attempt struct {
		Tick string `yaml:"tick"`
		TTL  string `yaml:"ttl"`
	} `yaml:"attempt"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.StorageDriver(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StorageDriver resolves which store keeps results. An empty driver means redis when an address
// is configured and memory otherwise.
func (c Config) StorageDriver() (string, error) {
	switch c.Storage.Driver {
	case "":
		if c.Redis.Addr != "" {
			return DriverRedis, nil
		}
		return DriverMemory, nil
	case DriverMemory, DriverRedis, DriverPostgres, DriverSQLite:
		return c.Storage.Driver, nil
	default:
		return "", fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
