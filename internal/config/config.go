package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Document DocumentConfig `yaml:"document"`
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	Debug       bool     `yaml:"debug"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DocumentConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
}

type RAGConfig struct {
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	VectorDimension     int     `yaml:"vector_dimension"`
	SimilarityThreshold float32 `yaml:"similarity_threshold"`
	TopK                int     `yaml:"top_k"`
}

type LLMConfig struct {
	BaseURL       string  `yaml:"base_url"`
	Key           string  `yaml:"key"`
	Model         string  `yaml:"model"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	ForceFallback bool    `yaml:"force_fallback"`
}

// LoadConfig reads the yaml config at path, then lets environment variables
// override the sensitive and deploy-specific values. A missing config file is
// not an error; everything can come from env and defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to env and defaults
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = strings.Split(origins, ",")
	}

	c.Document.MaxFileSizeMB = getEnvInt("MAX_FILE_SIZE_MB", c.Document.MaxFileSizeMB)

	c.RAG.ChunkSize = getEnvInt("CHUNK_SIZE", c.RAG.ChunkSize)
	c.RAG.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.RAG.ChunkOverlap)
	c.RAG.VectorDimension = getEnvInt("VECTOR_DIMENSION", c.RAG.VectorDimension)
	c.RAG.SimilarityThreshold = getEnvFloat32("SIMILARITY_THRESHOLD", c.RAG.SimilarityThreshold)
	c.RAG.TopK = getEnvInt("TOP_K", c.RAG.TopK)

	openAIKey := getEnv("OPENAI_API_KEY", "")
	c.EmbedLLM.BaseURL = getEnv("EMBEDDING_BASE_URL", c.EmbedLLM.BaseURL)
	c.EmbedLLM.Key = getEnv("EMBEDDING_API_KEY", firstNonEmpty(c.EmbedLLM.Key, openAIKey))
	c.EmbedLLM.Model = getEnv("EMBEDDING_MODEL", c.EmbedLLM.Model)

	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Key = getEnv("LLM_API_KEY", firstNonEmpty(c.LLM.Key, openAIKey))
	c.LLM.Model = getEnv("MODEL_NAME", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Temperature = getEnvFloat64("TEMPERATURE", c.LLM.Temperature)
	c.LLM.ForceFallback = getEnvBool("FORCE_FALLBACK", c.LLM.ForceFallback)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Document.MaxFileSizeMB == 0 {
		c.Document.MaxFileSizeMB = 50
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 800
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.VectorDimension == 0 {
		c.RAG.VectorDimension = 1536
	}
	if c.RAG.SimilarityThreshold == 0 {
		c.RAG.SimilarityThreshold = 0.7
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 3
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "text-embedding-ada-002"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
}

func (c *Config) validate() error {
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if !c.LLM.ForceFallback && c.LLM.Key == "" {
		return errors.New("LLM_API_KEY (or OPENAI_API_KEY) is required unless force_fallback is enabled")
	}
	if c.EmbedLLM.Key == "" {
		return errors.New("EMBEDDING_API_KEY (or OPENAI_API_KEY) is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
