package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceStatic   = "static"
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		ShutdownGrace  string   `yaml:"shutdownGrace"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"mongo"`
	Backend struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"backend"`
	Catalog struct {
		ID     string `yaml:"id"`
		Source string `yaml:"source"`
		Dir    string `yaml:"dir"`
		Watch  bool   `yaml:"watch"`
		TTL    string `yaml:"ttl"`
	} `yaml:"catalog"`
	Loading struct {
		Steps         []string `yaml:"steps"`
		StepInterval  string   `yaml:"stepInterval"`
		Dwell         string   `yaml:"dwell"`
		SubmitTimeout string   `yaml:"submitTimeout"`
	} `yaml:"loading"`
	Offers struct {
		AddOnPrice int `yaml:"addOnPrice"`
	} `yaml:"offers"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case "", SourceStatic:
	case SourceFile:
		if c.Catalog.Dir == "" {
			return fmt.Errorf("catalog.dir is required for the file source")
		}
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres.url is required for the postgres source")
		}
	case SourceMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo source")
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
