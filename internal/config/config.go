package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Bind    string `yaml:"bind"`
		Port    string `yaml:"port"`
		BaseURL string `yaml:"baseURL"`
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
	Questions struct {
		// BankSet names the question_sets row offered when no session set exists.
		BankSet string `yaml:"bankSet"`
		TTL     string `yaml:"ttl"`
	} `yaml:"questions"`
	Game struct {
		WinThreshold int    `yaml:"winThreshold"`
		Increment    int    `yaml:"increment"`
		MaxRounds    int    `yaml:"maxRounds"`
		RevealDelay  string `yaml:"revealDelay"`
		RoundTime    string `yaml:"roundTime"`
		TickStep     string `yaml:"tickStep"`
		MaxPlayers   int    `yaml:"maxPlayers"`
		FinishPolicy string `yaml:"finishPolicy"`
		Assignment   string `yaml:"assignment"`
		IdleTimeout  string `yaml:"idleTimeout"`
	} `yaml:"game"`
	Generator struct {
		Endpoint string `yaml:"endpoint"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"apiKey"`
	} `yaml:"generator"`
}

// Secrets are read from the environment and win over the YAML file.
type Secrets struct {
	RedisPassword   string `env:"QUIZ_REDIS_PASSWORD"`
	PostgresURL     string `env:"QUIZ_POSTGRES_URL"`
	GeneratorAPIKey string `env:"QUIZ_GENERATOR_API_KEY"`
}

// Load reads YAML config from path and applies environment secrets.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if s.RedisPassword != "" {
		c.Redis.Password = s.RedisPassword
	}
	if s.PostgresURL != "" {
		c.Postgres.URL = s.PostgresURL
	}
	if s.GeneratorAPIKey != "" {
		c.Generator.APIKey = s.GeneratorAPIKey
	}
	return nil
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

// IntOr returns v, or fallback when v is not positive.
func IntOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
