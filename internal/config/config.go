// Package config loads the service configuration from YAML with environment
// variable expansion for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP front door settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RequestTimeoutSecs bounds a whole request including LLM calls.
	RequestTimeoutSecs int `yaml:"request_timeout_secs"`
}

// DatabaseConfig holds Postgres connection settings for the blob store.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StorageConfig selects and configures the blob store backend.
type StorageConfig struct {
	// Backend is one of "fs", "postgres", "memory".
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path"`
	Database DatabaseConfig `yaml:"database"`
}

// LLMConfig points at an OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

// EmbeddingConfig configures the optional semantic index. When disabled,
// retrieval falls back to the keyword scan.
type EmbeddingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

// RAGConfig tunes chunking and context assembly.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopChunks    int `yaml:"top_chunks"`
	MaxSources   int `yaml:"max_sources"`
	Concurrency  int `yaml:"concurrency"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Storage    StorageConfig   `yaml:"storage"`
	ExtractLLM LLMConfig       `yaml:"extract_llm"`
	AnswerLLM  LLMConfig       `yaml:"answer_llm"`
	EmbedLLM   LLMConfig       `yaml:"embed_llm"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	RAG        RAGConfig       `yaml:"rag"`
}

// LoadConfig reads, env-expands, and parses the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = 180
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "fs"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/calls"
	}
	if c.Embedding.Path == "" {
		c.Embedding.Path = "./data/chromemdb"
	}
	if c.Embedding.Collection == "" {
		c.Embedding.Collection = "call_chunks"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 200
	}
	if c.RAG.TopChunks == 0 {
		c.RAG.TopChunks = 10
	}
	if c.RAG.MaxSources == 0 {
		c.RAG.MaxSources = 5
	}
	if c.RAG.Concurrency == 0 {
		c.RAG.Concurrency = 8
	}
}
