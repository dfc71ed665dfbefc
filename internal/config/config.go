package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FileEnv names the environment variable pointing at an optional TOML
// config file. Environment variables override file values.
const FileEnv = "PAGEGEST_CONFIG"

type Config struct {
	Port string `toml:"port"`

	// Auth
	APIKey string `toml:"api_key"`

	// Pathstore sink; disabled when PathstoreURL is empty.
	PathstoreURL    string  `toml:"pathstore_url"`
	PathstoreAPIKey string  `toml:"pathstore_api_key"`
	PathstoreRPS    float64 `toml:"pathstore_rps"`

	// Local sinks
	StorePath string `toml:"store_path"`
	OutputDir string `toml:"output_dir"`

	// Worker pool
	WorkerCount        int `toml:"worker_count"`
	MaxQueueSize       int `toml:"max_queue_size"`
	MaxConcurrentStore int `toml:"max_concurrent_store"`

	// Upload limits
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	// Chunking
	ChunkMaxChars int    `toml:"chunk_max_chars"`
	PageBaseURL   string `toml:"page_base_url"`

	// Parsing
	MacroRulesFile string `toml:"macro_rules_file"`

	// Job state
	JobTTL time.Duration `toml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `toml:"pdf_fallback_pdftotext"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		PathstoreRPS:         20,
		StorePath:            "pagegest.db",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentStore:   10,
		MaxUploadBytes:       52428800, // 50MB
		ChunkMaxChars:        1000,
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
	}
}

// Load layers defaults, the optional TOML file and the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv(FileEnv); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("PAGEGEST_API_KEY", cfg.APIKey)

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)
	cfg.PathstoreRPS = envFloat("PATHSTORE_RPS", cfg.PathstoreRPS)

	cfg.StorePath = envOr("STORE_PATH", cfg.StorePath)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentStore = envInt("MAX_CONCURRENT_STORE", cfg.MaxConcurrentStore)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.ChunkMaxChars = envInt("CHUNK_MAX_CHARS", cfg.ChunkMaxChars)
	cfg.PageBaseURL = envOr("PAGE_BASE_URL", cfg.PageBaseURL)
	cfg.MacroRulesFile = envOr("MACRO_RULES_FILE", cfg.MacroRulesFile)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	def := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = def.MaxConcurrentStore
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = def.ChunkMaxChars
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required.Error("PAGEGEST_API_KEY is required")),
		validation.Field(&c.WorkerCount, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxQueueSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxConcurrentStore, validation.Required, validation.Min(1)),
		validation.Field(&c.ChunkMaxChars, validation.Required, validation.Min(100)),
		validation.Field(&c.PathstoreURL, validation.By(absoluteURL)),
		validation.Field(&c.PathstoreAPIKey,
			validation.When(c.PathstoreURL != "", validation.Required.Error("PATHSTORE_API_KEY is required when PATHSTORE_URL is set"))),
		validation.Field(&c.PageBaseURL, validation.By(absoluteURL)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewError("validation_url_invalid", "must be an absolute URL")
	}
	return nil
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
