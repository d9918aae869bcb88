// Package config loads pipeline configuration from a YAML file layered over
// environment variables. A missing config file yields defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OllamaConfig contains connection details for the Ollama server.
type OllamaConfig struct {
	Host       string `yaml:"host"`
	EmbedModel string `yaml:"embed_model"`
	ChatModel  string `yaml:"chat_model"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CollectionConfig describes the collection to provision and use.
type CollectionConfig struct {
	Name            string `yaml:"name"`
	Dimension       int    `yaml:"dimension"`
	Distance        string `yaml:"distance"`
	HNSWM           uint64 `yaml:"hnsw_m"`
	HNSWEfConstruct uint64 `yaml:"hnsw_ef_construct"`
}

// GenerationConfig holds sampling parameters passed to the chat service.
type GenerationConfig struct {
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Config is the root configuration structure.
type Config struct {
	// StoreType selects the vector store backend: "qdrant" or "memory"
	StoreType  string           `yaml:"store_type"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Collection CollectionConfig `yaml:"collection"`
	Generation GenerationConfig `yaml:"generation"`
}

// Load reads a config from path. If the file does not exist, defaults are
// returned. A .env file in the working directory is loaded first so the
// OLLAMA_HOST override works without exporting it.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env is not an error
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		StoreType: "qdrant",
		Ollama: OllamaConfig{
			Host:       "http://localhost:11434",
			EmbedModel: "llama3",
			ChatModel:  "llama3.2",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Collection: CollectionConfig{
			Name:      "records",
			Dimension: 4096,
			Distance:  "cosine",
		},
		Generation: GenerationConfig{
			Temperature: 0.0,
			TopP:        0.5,
			MaxTokens:   2048,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.StoreType == "" {
		cfg.StoreType = def.StoreType
	}
	if cfg.Ollama.Host == "" {
		cfg.Ollama.Host = def.Ollama.Host
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = def.Ollama.EmbedModel
	}
	if cfg.Ollama.ChatModel == "" {
		cfg.Ollama.ChatModel = def.Ollama.ChatModel
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = def.Qdrant.Host
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = def.Qdrant.Port
	}
	if cfg.Collection.Name == "" {
		cfg.Collection.Name = def.Collection.Name
	}
	if cfg.Collection.Dimension == 0 {
		cfg.Collection.Dimension = def.Collection.Dimension
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = def.Collection.Distance
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = def.Generation.MaxTokens
	}
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.Host = host
	}
}
