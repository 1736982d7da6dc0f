package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Session  SessionConfig
	Qdrant   QdrantConfig
	Log      LogConfig
	Janitor  JanitorConfig
	Agent    AgentConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	BaseURL    string
}

type PipelineConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	SummaryTemperature float32
	MatchTemperature   float32
	StrictExtraction   bool
	ReducePerDocument  bool
}

type StorageConfig struct {
	Backend     string
	UploadPath  string
	MaxFileSize int64
	TTL         time.Duration
	Capacity    int
	S3          S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type SessionConfig struct {
	Backend        string
	TTL            time.Duration
	Capacity       int
	ValkeyAddr     string
	ValkeyPassword string
}

type QdrantConfig struct {
	URL          string
	APIKey       string
	Collection   string
	VectorSize   uint64
	ChunkSize    int
	ChunkOverlap int
}

type LogConfig struct {
	JSON      bool
	Debug     bool
	MaxLength int
}

type JanitorConfig struct {
	Interval time.Duration
}

type AgentConfig struct {
	MaxToolRounds int
}

const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendValkey = "valkey"
)

var defaults = map[string]any{
	"port":                "3000",
	"env":                 "development",
	"gemini_api_key":      "",
	"gemini_model":        "gemini-2.5-flash",
	"gemini_embed_model":  "text-embedding-004",
	"gemini_base_url":     "",
	"chunk_size":          10000,
	"chunk_overlap":       400,
	"summary_temperature": 0.3,
	"match_temperature":   0.2,
	"strict_extraction":   false,
	"reduce_per_document": false,
	"storage_backend":     BackendLocal,
	"upload_path":         "./data/files",
	"max_file_size":       10485760,
	"file_ttl":            "24h",
	"file_capacity":       1000,
	"s3_bucket":           "",
	"s3_region":           "us-east-1",
	"s3_endpoint":         "",
	"s3_access_key":       "",
	"s3_secret_key":       "",
	"session_backend":     BackendMemory,
	"session_ttl":         "24h",
	"session_capacity":    1000,
	"valkey_addr":         "localhost:6379",
	"valkey_password":     "",
	"qdrant_url":          "",
	"qdrant_api_key":      "",
	"qdrant_collection":   "curie_documents",
	"qdrant_vector_size":  768,
	"index_chunk_size":    1000,
	"index_chunk_overlap": 200,
	"log_json":            false,
	"log_debug":           false,
	"log_max_length":      300,
	"janitor_interval":    "1m",
	"agent_tool_rounds":   5,
}

// Load resolves configuration from .env, the environment and, when v was
// given a config file or bound flags, from those too.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	if v == nil {
		v = viper.New()
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("port"),
			Env:  v.GetString("env"),
		},
		Gemini: GeminiConfig{
			APIKey:     strings.TrimSpace(v.GetString("gemini_api_key")),
			Model:      v.GetString("gemini_model"),
			EmbedModel: v.GetString("gemini_embed_model"),
			BaseURL:    strings.TrimSpace(v.GetString("gemini_base_url")),
		},
		Pipeline: PipelineConfig{
			ChunkSize:          v.GetInt("chunk_size"),
			ChunkOverlap:       v.GetInt("chunk_overlap"),
			SummaryTemperature: float32(v.GetFloat64("summary_temperature")),
			MatchTemperature:   float32(v.GetFloat64("match_temperature")),
			StrictExtraction:   v.GetBool("strict_extraction"),
			ReducePerDocument:  v.GetBool("reduce_per_document"),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(v.GetString("storage_backend")),
			UploadPath:  v.GetString("upload_path"),
			MaxFileSize: v.GetInt64("max_file_size"),
			TTL:         v.GetDuration("file_ttl"),
			Capacity:    v.GetInt("file_capacity"),
			S3: S3Config{
				Bucket:    v.GetString("s3_bucket"),
				Region:    v.GetString("s3_region"),
				Endpoint:  v.GetString("s3_endpoint"),
				AccessKey: v.GetString("s3_access_key"),
				SecretKey: v.GetString("s3_secret_key"),
			},
		},
		Session: SessionConfig{
			Backend:        strings.ToLower(v.GetString("session_backend")),
			TTL:            v.GetDuration("session_ttl"),
			Capacity:       v.GetInt("session_capacity"),
			ValkeyAddr:     v.GetString("valkey_addr"),
			ValkeyPassword: v.GetString("valkey_password"),
		},
		Qdrant: QdrantConfig{
			URL:          v.GetString("qdrant_url"),
			APIKey:       v.GetString("qdrant_api_key"),
			Collection:   v.GetString("qdrant_collection"),
			VectorSize:   v.GetUint64("qdrant_vector_size"),
			ChunkSize:    v.GetInt("index_chunk_size"),
			ChunkOverlap: v.GetInt("index_chunk_overlap"),
		},
		Log: LogConfig{
			JSON:      v.GetBool("log_json"),
			Debug:     v.GetBool("log_debug"),
			MaxLength: v.GetInt("log_max_length"),
		},
		Janitor: JanitorConfig{
			Interval: v.GetDuration("janitor_interval"),
		},
		Agent: AgentConfig{
			MaxToolRounds: v.GetInt("agent_tool_rounds"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the pipelines cannot run with. An overlap that is
// not smaller than the chunk size is allowed and only reported, since the
// chunker then advances one character per window.
func (c *Config) Validate() error {
	if c.Pipeline.ChunkSize <= 0 {
		return errors.New("chunk_size must be positive")
	}
	if c.Pipeline.ChunkOverlap < 0 {
		return errors.New("chunk_overlap must not be negative")
	}
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		log.Printf("⚠️  chunk_overlap (%d) >= chunk_size (%d): chunking will advance one character per window",
			c.Pipeline.ChunkOverlap, c.Pipeline.ChunkSize)
	}

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("s3_bucket is required when storage_backend is s3")
		}
	default:
		return fmt.Errorf("unknown storage_backend %q", c.Storage.Backend)
	}

	switch c.Session.Backend {
	case BackendMemory, BackendValkey:
	default:
		return fmt.Errorf("unknown session_backend %q", c.Session.Backend)
	}

	if c.Agent.MaxToolRounds <= 0 {
		c.Agent.MaxToolRounds = 1
	}

	return nil
}

// IndexEnabled reports whether the document index should be wired.
func (c *Config) IndexEnabled() bool {
	return strings.TrimSpace(c.Qdrant.URL) != ""
}
