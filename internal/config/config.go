package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	appenhance "github.com/bryanwahyu/mediscan-ai/internal/application/enhance"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port" env:"SERVER_PORT"`
		CORSOrigins []string `yaml:"corsOrigins" env:"CORS_ORIGINS"`
	} `yaml:"server"`

	Enhance struct {
		NarrativeTimeoutSeconds int `yaml:"narrativeTimeoutSeconds" env:"NARRATIVE_TIMEOUT_SECONDS"`
		ResourceTimeoutSeconds  int `yaml:"resourceTimeoutSeconds" env:"RESOURCE_TIMEOUT_SECONDS"`
		KeywordTimeoutSeconds   int `yaml:"keywordTimeoutSeconds" env:"KEYWORD_TIMEOUT_SECONDS"`
		OverallTimeoutSeconds   int `yaml:"overallTimeoutSeconds" env:"OVERALL_TIMEOUT_SECONDS"`
	} `yaml:"enhance"`

	Scorer struct {
		// default 0.30, inherited from the source system without
		// clinical validation
		ConfidenceThreshold float64 `yaml:"confidenceThreshold" env:"CONFIDENCE_THRESHOLD"`
	} `yaml:"scorer"`

	Narrative struct {
		APIKey  string `yaml:"apiKey" env:"GROQ_API_KEY"`
		BaseURL string `yaml:"baseUrl" env:"GROQ_BASE_URL"`
		Model   string `yaml:"model" env:"GROQ_MODEL"`
	} `yaml:"narrative"`

	Resources struct {
		APIKey         string   `yaml:"apiKey" env:"TAVILY_API_KEY"`
		BaseURL        string   `yaml:"baseUrl" env:"TAVILY_BASE_URL"`
		MaxResults     int      `yaml:"maxResults" env:"RESOURCE_MAX_RESULTS"`
		TrustedDomains []string `yaml:"trustedDomains" env:"TRUSTED_DOMAINS"`
	} `yaml:"resources"`

	Keywords struct {
		APIKey  string `yaml:"apiKey" env:"KEYWORD_AI_KEY"`
		BaseURL string `yaml:"baseUrl" env:"KEYWORD_AI_BASE_URL"`
	} `yaml:"keywords"`

	Minio struct {
		Enabled    bool   `yaml:"enabled" env:"MINIO_ENABLED"`
		Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
		BucketName string `yaml:"bucketName" env:"MINIO_BUCKET"`
		Region     string `yaml:"region" env:"MINIO_REGION"`
		UseSSL     bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
	} `yaml:"minio"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys" env:"API_KEYS"`
	} `yaml:"auth"`

	Limits struct {
		RateCapacity     int `yaml:"rateCapacity" env:"RATE_CAPACITY"`
		RateRefillPerSec int `yaml:"rateRefillPerSec" env:"RATE_REFILL_PER_SEC"`
	} `yaml:"limits"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Enhance.NarrativeTimeoutSeconds = 15
	cfg.Enhance.ResourceTimeoutSeconds = 10
	cfg.Enhance.KeywordTimeoutSeconds = 5
	cfg.Enhance.OverallTimeoutSeconds = 20
	cfg.Scorer.ConfidenceThreshold = 0.30
	cfg.Resources.MaxResults = 5
	cfg.Resources.TrustedDomains = []string{"mayoclinic.org", "aad.org", "dermnetnz.org", "skincancer.org"}
	cfg.Limits.RateCapacity = 30
	cfg.Limits.RateRefillPerSec = 10
	return cfg
}

// Load baca config.yaml kalau ada, lalu overlay env vars.
// File yang tidak ada bukan error, defaults yang dipakai.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, uerr)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Scorer.ConfidenceThreshold < 0 || c.Scorer.ConfidenceThreshold > 1 {
		return fmt.Errorf("scorer.confidenceThreshold %.2f outside [0, 1]", c.Scorer.ConfidenceThreshold)
	}
	if c.Resources.MaxResults <= 0 {
		return fmt.Errorf("resources.maxResults must be positive")
	}
	if len(c.Resources.TrustedDomains) == 0 {
		return fmt.Errorf("resources.trustedDomains must not be empty")
	}

	adapters := map[string]int{
		"enhance.narrativeTimeoutSeconds": c.Enhance.NarrativeTimeoutSeconds,
		"enhance.resourceTimeoutSeconds":  c.Enhance.ResourceTimeoutSeconds,
		"enhance.keywordTimeoutSeconds":   c.Enhance.KeywordTimeoutSeconds,
	}
	longest := 0
	for name, secs := range adapters {
		if secs <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
		if secs > longest {
			longest = secs
		}
	}
	if c.Enhance.OverallTimeoutSeconds < longest {
		return fmt.Errorf("enhance.overallTimeoutSeconds %d must cover the longest adapter timeout (%ds)",
			c.Enhance.OverallTimeoutSeconds, longest)
	}
	return nil
}

// Timeouts builds the enhancement budgets from the configured seconds.
func (c *Config) Timeouts() appenhance.Timeouts {
	return appenhance.Timeouts{
		Narrative: time.Duration(c.Enhance.NarrativeTimeoutSeconds) * time.Second,
		Resource:  time.Duration(c.Enhance.ResourceTimeoutSeconds) * time.Second,
		Keyword:   time.Duration(c.Enhance.KeywordTimeoutSeconds) * time.Second,
		Overall:   time.Duration(c.Enhance.OverallTimeoutSeconds) * time.Second,
	}
}
