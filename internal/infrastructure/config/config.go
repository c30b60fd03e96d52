// Package config loads the YAML service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the YAML config file.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Embedding ProviderConfig  `yaml:"embedding,omitempty"`
	Oracle    ProviderConfig  `yaml:"oracle,omitempty"`
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`

	// Sources lists the knowledge sources to open, in retrieval order.
	Sources []string `yaml:"sources,omitempty"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// ProviderConfig describes an OpenAI-compatible endpoint.
type ProviderConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"` // literal or ${ENV_VAR}
	Model      string `yaml:"model,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
}

// RetrievalConfig tunes retrieval and the rule engine.
type RetrievalConfig struct {
	TopK               int     `yaml:"top_k,omitempty"`
	RelevanceThreshold float64 `yaml:"relevance_threshold,omitempty"`
	DominanceMargin    float64 `yaml:"dominance_margin,omitempty"`
}

// StorageConfig locates the on-disk term stores and the corpus directory.
type StorageConfig struct {
	DataPath  string `yaml:"data_path,omitempty"`
	CorpusDir string `yaml:"corpus_dir,omitempty"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Embedding: ProviderConfig{
			BaseURL: "https://api.openai.com",
			APIKey:  "${OPENAI_API_KEY}",
			Model:   "text-embedding-3-small",
		},
		Oracle: ProviderConfig{
			BaseURL: "https://api.openai.com",
			APIKey:  "${OPENAI_API_KEY}",
			Model:   "gpt-4o",
		},
		Retrieval: RetrievalConfig{
			TopK:               5,
			RelevanceThreshold: 0.75,
			DominanceMargin:    0.10,
		},
		Storage: StorageConfig{
			DataPath:  "data",
			CorpusDir: "corpus",
		},
		Sources: []string{"alphabetical", "ipos", "uspto", "mgs_notes"},
	}
}

// Load reads a YAML config file, applies defaults for anything left unset,
// and expands ${ENV_VAR} references. With an empty path it searches
// nice.yaml and ~/.nice/config.yaml, falling back to defaults when no file
// exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, resolvedPath, err := readConfigFile(path)
	if err != nil {
		if path != "" {
			return nil, err
		}
		expandEnvInConfig(cfg)
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", resolvedPath, err)
	}

	expandEnvInConfig(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", resolvedPath, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one knowledge source is required")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.RelevanceThreshold < 0 || c.Retrieval.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance_threshold must be in [0,1], got %g", c.Retrieval.RelevanceThreshold)
	}
	if c.Retrieval.DominanceMargin < 0 || c.Retrieval.DominanceMargin > 1 {
		return fmt.Errorf("dominance_margin must be in [0,1], got %g", c.Retrieval.DominanceMargin)
	}
	return nil
}

func readConfigFile(path string) ([]byte, string, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{"nice.yaml", "nice.yml"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates,
				filepath.Join(home, ".nice", "config.yaml"),
				filepath.Join(home, ".nice", "config.yml"),
			)
		}
	}

	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
	}

	if path != "" {
		return nil, path, fmt.Errorf("config file not found: %s", path)
	}
	return nil, "", os.ErrNotExist
}

// expandEnvInConfig replaces ${VAR} references with environment variable values.
func expandEnvInConfig(cfg *Config) {
	cfg.Server.Addr = expandEnv(cfg.Server.Addr)
	cfg.Embedding.BaseURL = expandEnv(cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = expandEnv(cfg.Embedding.APIKey)
	cfg.Oracle.BaseURL = expandEnv(cfg.Oracle.BaseURL)
	cfg.Oracle.APIKey = expandEnv(cfg.Oracle.APIKey)
	cfg.Storage.DataPath = expandEnv(cfg.Storage.DataPath)
	cfg.Storage.CorpusDir = expandEnv(cfg.Storage.CorpusDir)
}

func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return os.ExpandEnv(s)
}
