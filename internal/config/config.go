package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	BackendLocal  = "local"
	BackendQdrant = "qdrant"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	DocumentsDir string `yaml:"documents_dir"`
	TempDir      string `yaml:"temp_dir"`
	IndexPath    string `yaml:"index_path"`
	IndexBackend string `yaml:"index_backend"`

	ChunkSize            int `yaml:"chunk_size"`
	ChunkOverlap         int `yaml:"chunk_overlap"`
	RAGTopK              int `yaml:"rag_top_k"`
	RAGTopNInitial       int `yaml:"rag_top_n_initial"`
	RAGTopKReranked      int `yaml:"rag_top_k_reranked"`
	RAGNumSubqueries     int `yaml:"rag_num_subqueries"`
	RAGMaxContextTokens  int `yaml:"rag_max_context_tokens"`
	RAGFanoutConcurrency int `yaml:"rag_fanout_concurrency"`

	GenerationProvider string `yaml:"generation_provider"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	AnthropicAPIKey    string `yaml:"anthropic_api_key"`
	AnthropicBaseURL   string `yaml:"anthropic_base_url"`
	AnthropicModel     string `yaml:"anthropic_model"`
	AnthropicMaxTokens int    `yaml:"anthropic_max_tokens"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaChatModel  string `yaml:"ollama_chat_model"`
	OllamaEmbedModel string `yaml:"ollama_embed_model"`

	VoyageAPIKey      string `yaml:"voyage_api_key"`
	VoyageBaseURL     string `yaml:"voyage_base_url"`
	VoyageRerankModel string `yaml:"voyage_rerank_model"`

	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	OutboundRetryMaxAttempts int     `yaml:"outbound_retry_max_attempts"`
	OutboundBreakerEnabled   bool    `yaml:"outbound_breaker_enabled"`
	OutboundRateLimitRPS     float64 `yaml:"outbound_rate_limit_rps"`
	OutboundRateLimitBurst   int     `yaml:"outbound_rate_limit_burst"`
	APIRateLimitRPS          float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst        int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight           int     `yaml:"api_max_in_flight"`
	APIBackpressureWaitMS    int     `yaml:"api_backpressure_wait_ms"`
}

func Defaults() Config {
	return Config{
		APIPort:  "8080",
		LogLevel: "info",

		DocumentsDir: "./documents",
		TempDir:      "./temp_chunks",
		IndexPath:    "./vector_index",
		IndexBackend: BackendLocal,

		ChunkSize:            1000,
		ChunkOverlap:         100,
		RAGTopK:              5,
		RAGTopNInitial:       10,
		RAGTopKReranked:      5,
		RAGNumSubqueries:     3,
		RAGMaxContextTokens:  14000,
		RAGFanoutConcurrency: 1,

		GenerationProvider: ProviderOpenAI,
		OpenAIModel:        "o3-2025-04-16",
		AnthropicModel:     "claude-sonnet-4-5",
		AnthropicMaxTokens: 4096,

		OllamaURL:        "http://localhost:11434",
		OllamaChatModel:  "llama3.1:8b",
		OllamaEmbedModel: "nomic-embed-text",

		VoyageRerankModel: "rerank-2",

		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "rdrag_fragments",

		NATSSubject: "rag.reindex",

		OutboundRetryMaxAttempts: 3,
		OutboundBreakerEnabled:   true,
		OutboundRateLimitBurst:   1,
		APIRateLimitBurst:        1,
		APIBackpressureWaitMS:    250,
	}
}

// Load reads the optional YAML file named by RDRAG_CONFIG, then applies env overrides.
func Load() (Config, error) {
	return LoadFile(os.Getenv("RDRAG_CONFIG"))
}

func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.GenerationProvider = strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	cfg.IndexBackend = strings.ToLower(strings.TrimSpace(cfg.IndexBackend))
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIPort = mustEnv("API_PORT", c.APIPort)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)

	c.DocumentsDir = mustEnv("DOCUMENTS_DIR", c.DocumentsDir)
	c.TempDir = mustEnv("TEMP_DIR", c.TempDir)
	c.IndexPath = mustEnv("INDEX_PATH", c.IndexPath)
	c.IndexBackend = mustEnv("INDEX_BACKEND", c.IndexBackend)

	c.ChunkSize = mustEnvInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = mustEnvInt("CHUNK_OVERLAP", c.ChunkOverlap)
	c.RAGTopK = mustEnvInt("RAG_TOP_K", c.RAGTopK)
	c.RAGTopNInitial = mustEnvInt("RAG_TOP_N_INITIAL", c.RAGTopNInitial)
	c.RAGTopKReranked = mustEnvInt("RAG_TOP_K_RERANKED", c.RAGTopKReranked)
	c.RAGNumSubqueries = mustEnvInt("RAG_NUM_SUBQUERIES", c.RAGNumSubqueries)
	c.RAGMaxContextTokens = mustEnvInt("RAG_MAX_CONTEXT_TOKENS", c.RAGMaxContextTokens)
	c.RAGFanoutConcurrency = mustEnvInt("RAG_FANOUT_CONCURRENCY", c.RAGFanoutConcurrency)

	c.GenerationProvider = mustEnv("GENERATION_PROVIDER", c.GenerationProvider)

	c.OpenAIAPIKey = mustEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = mustEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = mustEnv("OPENAI_MODEL", c.OpenAIModel)

	c.AnthropicAPIKey = mustEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicBaseURL = mustEnv("ANTHROPIC_BASE_URL", c.AnthropicBaseURL)
	c.AnthropicModel = mustEnv("ANTHROPIC_MODEL", c.AnthropicModel)
	c.AnthropicMaxTokens = mustEnvInt("ANTHROPIC_MAX_TOKENS", c.AnthropicMaxTokens)

	c.OllamaURL = mustEnv("OLLAMA_URL", c.OllamaURL)
	c.OllamaChatModel = mustEnv("OLLAMA_CHAT_MODEL", c.OllamaChatModel)
	c.OllamaEmbedModel = mustEnv("OLLAMA_EMBED_MODEL", c.OllamaEmbedModel)

	c.VoyageAPIKey = mustEnv("VOYAGE_API_KEY", c.VoyageAPIKey)
	c.VoyageBaseURL = mustEnv("VOYAGE_BASE_URL", c.VoyageBaseURL)
	c.VoyageRerankModel = mustEnv("VOYAGE_RERANK_MODEL", c.VoyageRerankModel)

	c.QdrantURL = mustEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantCollection = mustEnv("QDRANT_COLLECTION", c.QdrantCollection)

	c.NATSURL = mustEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = mustEnv("NATS_SUBJECT", c.NATSSubject)

	c.OutboundRetryMaxAttempts = mustEnvInt("OUTBOUND_RETRY_MAX_ATTEMPTS", c.OutboundRetryMaxAttempts)
	c.OutboundBreakerEnabled = mustEnvBool("OUTBOUND_BREAKER_ENABLED", c.OutboundBreakerEnabled)
	c.OutboundRateLimitRPS = mustEnvFloat("OUTBOUND_RATE_LIMIT_RPS", c.OutboundRateLimitRPS)
	c.OutboundRateLimitBurst = mustEnvInt("OUTBOUND_RATE_LIMIT_BURST", c.OutboundRateLimitBurst)
	c.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", c.APIRateLimitRPS)
	c.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", c.APIRateLimitBurst)
	c.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", c.APIMaxInFlight)
	c.APIBackpressureWaitMS = mustEnvInt("API_BACKPRESSURE_WAIT_MS", c.APIBackpressureWaitMS)
}

// GenerationCredential returns the credential of the selected provider and its env name.
// Ollama needs none and reports ok=true.
func (c Config) GenerationCredential() (name string, ok bool) {
	switch c.GenerationProvider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY", c.AnthropicAPIKey != ""
	case ProviderOllama:
		return "", true
	default:
		return "OPENAI_API_KEY", c.OpenAIAPIKey != ""
	}
}

// MissingCredentials lists env names whose absence disables a remote service.
func (c Config) MissingCredentials() []string {
	var out []string
	if name, ok := c.GenerationCredential(); !ok {
		out = append(out, name)
	}
	if c.VoyageAPIKey == "" {
		out = append(out, "VOYAGE_API_KEY")
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
