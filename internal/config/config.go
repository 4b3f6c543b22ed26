package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// Auth
	DocsiftAPIKey string `yaml:"-"`

	// Analysis
	Language         string        `yaml:"language"`
	ChunkTargetSize  int           `yaml:"chunk_target_size"`
	MinTextLength    int           `yaml:"min_text_length"`
	KeywordsTopN     int           `yaml:"keywords_top_n"`
	KeywordsMinScore float64       `yaml:"keywords_min_score"`
	CallTimeout      time.Duration `yaml:"call_timeout"`
	Summarizer       string        `yaml:"summarizer"` // ollama | completion

	// Completion capability
	CompletionProvider string `yaml:"completion_provider"` // mistral | anthropic
	MistralAPIKey      string `yaml:"-"`
	MistralModel       string `yaml:"mistral_model"`
	MistralURL         string `yaml:"mistral_url"`
	AnthropicAPIKey    string `yaml:"-"`
	AnthropicModel     string `yaml:"anthropic_model"`

	// Local models
	OllamaHost         string `yaml:"ollama_host"`
	OllamaSummaryModel string `yaml:"ollama_summary_model"`
	OllamaEmbedModel   string `yaml:"ollama_embed_model"`

	// OCR
	TesseractLang      string `yaml:"tesseract_lang"`
	OCRDPI             int    `yaml:"ocr_dpi"`
	PDFMinCharsPerPage int    `yaml:"pdf_min_chars_per_page"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:   "8090",
		DBPath: "docsift.db",

		Language:        "fr",
		ChunkTargetSize: 8000,
		MinTextLength:   50,
		KeywordsTopN:    10,
		CallTimeout:     60 * time.Second,
		Summarizer:      "ollama",

		CompletionProvider: "mistral",
		MistralModel:       "mistral-small-latest",
		MistralURL:         "https://api.mistral.ai/v1/chat/completions",
		AnthropicModel:     "claude-sonnet-4-5-20250929",

		OllamaSummaryModel: "llama3.2",
		OllamaEmbedModel:   "all-minilm",

		TesseractLang:      "fra",
		OCRDPI:             300,
		PDFMinCharsPerPage: 50,

		WorkerCount:  4,
		MaxQueueSize: 100,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL: 1 * time.Hour,

		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by DOCSIFT_CONFIG, and the environment, in that order.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("DOCSIFT_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)

	cfg.DocsiftAPIKey = os.Getenv("DOCSIFT_API_KEY")

	cfg.Language = envOr("ANALYSIS_LANGUAGE", cfg.Language)
	cfg.ChunkTargetSize = envInt("CHUNK_TARGET_SIZE", cfg.ChunkTargetSize)
	cfg.MinTextLength = envInt("MIN_TEXT_LENGTH", cfg.MinTextLength)
	cfg.KeywordsTopN = envInt("KEYWORDS_TOP_N", cfg.KeywordsTopN)
	cfg.KeywordsMinScore = envFloat("KEYWORDS_MIN_SCORE", cfg.KeywordsMinScore)
	cfg.CallTimeout = envDuration("CALL_TIMEOUT", cfg.CallTimeout)
	cfg.Summarizer = envOr("SUMMARIZER", cfg.Summarizer)

	cfg.CompletionProvider = envOr("COMPLETION_PROVIDER", cfg.CompletionProvider)
	cfg.MistralAPIKey = os.Getenv("MISTRAL_API_KEY")
	cfg.MistralModel = envOr("MISTRAL_MODEL", cfg.MistralModel)
	cfg.MistralURL = envOr("MISTRAL_URL", cfg.MistralURL)
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)

	cfg.OllamaHost = envOr("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaSummaryModel = envOr("OLLAMA_SUMMARY_MODEL", cfg.OllamaSummaryModel)
	cfg.OllamaEmbedModel = envOr("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel)

	cfg.TesseractLang = envOr("TESSERACT_LANG", cfg.TesseractLang)
	cfg.OCRDPI = envInt("OCR_DPI", cfg.OCRDPI)
	cfg.PDFMinCharsPerPage = envInt("PDF_OCR_MIN_CHARS_PER_PAGE", cfg.PDFMinCharsPerPage)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envOr("LOG_FILE", cfg.LogFile)

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults resets non-positive numeric settings.
func (c *Config) applyDefaults() {
	d := Defaults()
	if c.ChunkTargetSize <= 0 {
		c.ChunkTargetSize = d.ChunkTargetSize
	}
	if c.MinTextLength < 0 {
		c.MinTextLength = d.MinTextLength
	}
	if c.KeywordsTopN <= 0 {
		c.KeywordsTopN = d.KeywordsTopN
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.OCRDPI <= 0 {
		c.OCRDPI = d.OCRDPI
	}
	if c.PDFMinCharsPerPage <= 0 {
		c.PDFMinCharsPerPage = d.PDFMinCharsPerPage
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
}

// Validate checks the settings needed to analyze documents.
func (c Config) Validate() error {
	switch c.Language {
	case "fr", "en":
	default:
		return fmt.Errorf("ANALYSIS_LANGUAGE must be fr or en, got %q", c.Language)
	}
	switch c.Summarizer {
	case "ollama", "completion":
	default:
		return fmt.Errorf("SUMMARIZER must be ollama or completion, got %q", c.Summarizer)
	}
	switch c.CompletionProvider {
	case "mistral":
		if c.MistralAPIKey == "" {
			return fmt.Errorf("MISTRAL_API_KEY is required")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	default:
		return fmt.Errorf("COMPLETION_PROVIDER must be mistral or anthropic, got %q", c.CompletionProvider)
	}
	return nil
}

// ValidateServer also requires the API key guarding the HTTP service.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DocsiftAPIKey == "" {
		return fmt.Errorf("DOCSIFT_API_KEY is required")
	}
	return nil
}

// CompletionModel names the model behind the completion capability.
func (c Config) CompletionModel() string {
	if c.CompletionProvider == "anthropic" {
		return c.AnthropicModel
	}
	return c.MistralModel
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
