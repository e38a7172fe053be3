package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input struct {
		Methods      string `yaml:"methods"`       // Joern method export (JSON)
		CounterBound int    `yaml:"counter_bound"` // 0 sizes the counter index automatically
		Workers      int    `yaml:"workers"`       // concurrent DOT parsing; 0 uses all CPUs
		Parallel     bool   `yaml:"parallel"`      // stitch methods concurrently (labels not reproducible)
	} `yaml:"input"`
	Features struct {
		Strategy string `yaml:"strategy"` // charbag | embedding
		Table    string `yaml:"table"`    // word2vec text table
		DB       string `yaml:"db"`       // read the table from this SQLite store instead
	} `yaml:"features"`
	AI struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"` // embedding model
		APIKey    string `yaml:"api_key"`
		Dimension int    `yaml:"dimension"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"ai"`
	Corpus struct {
		Root       string   `yaml:"root"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"corpus"`
	Output struct {
		JSON    string `yaml:"json"`
		DB      string `yaml:"db"`
		DOT     string `yaml:"dot"`
		Mermaid string `yaml:"mermaid"`
	} `yaml:"output"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used for fields a file leaves unset.
func Default() *Config {
	var cfg Config
	cfg.Input.Methods = "methods.json"
	cfg.Features.Strategy = "charbag"
	cfg.AI.Provider = "gemini"
	cfg.Corpus.Root = "."
	cfg.Output.JSON = "graph.json"
	cfg.Log.Level = "info"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if apiKey := os.Getenv("GRAPHEXTRACT_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if provider := os.Getenv("GRAPHEXTRACT_AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if bound := os.Getenv("GRAPHEXTRACT_COUNTER_BOUND"); bound != "" {
		n, err := strconv.Atoi(strings.TrimSpace(bound))
		if err != nil {
			return fmt.Errorf("GRAPHEXTRACT_COUNTER_BOUND: %w", err)
		}
		c.Input.CounterBound = n
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Input.CounterBound < 0 {
		return fmt.Errorf("input.counter_bound must not be negative, got %d", c.Input.CounterBound)
	}
	if c.Input.Workers < 0 {
		return fmt.Errorf("input.workers must not be negative, got %d", c.Input.Workers)
	}
	if c.AI.Dimension < 0 {
		return fmt.Errorf("ai.dimension must not be negative, got %d", c.AI.Dimension)
	}

	switch strings.ToLower(c.Features.Strategy) {
	case "", "charbag":
	case "embedding":
		if c.Features.Table == "" && c.Features.DB == "" {
			return fmt.Errorf("features.strategy embedding needs features.table or features.db")
		}
	default:
		return fmt.Errorf("unsupported features.strategy: %s", c.Features.Strategy)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log.level: %s", c.Log.Level)
	}
	return nil
}
