// Package config provides application configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbxark/apptagent/extract"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	DBPath       string // empty means in-memory appointments
	DocsDir      string
	LogLevel     string
	HistoryLimit int
	Timeout      time.Duration
	OpenAI       OpenAIConfig
	Form         FormConfig
	Retrieval    RetrievalConfig
}

// OpenAIConfig targets any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	EmbedModel      string
	RouterEnabled   bool
	DialogueEnabled bool
}

// FormConfig carries the booking-form knobs.
type FormConfig struct {
	RetryLimit     int // 0 means unbounded
	PhoneDigitMin  int
	PhoneDigitMax  int
	NameLenMin     int
	NameLenMax     int
	TriggerPhrases []string // empty means the built-in list
}

// RetrievalConfig carries the document index knobs.
type RetrievalConfig struct {
	TopK         int
	ChunkSize    int
	ChunkOverlap int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	rules := extract.DefaultRules()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "./data/appointments.db"),
		DocsDir:      getEnv("DOCS_DIR", "./docs"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 10),
		Timeout:      getEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			EmbedModel:      getEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			RouterEnabled:   getEnvBool("LLM_ROUTER_ENABLED", true),
			DialogueEnabled: getEnvBool("LLM_DIALOGUE_ENABLED", true),
		},
		Form: FormConfig{
			RetryLimit:     getEnvInt("FORM_RETRY_LIMIT", 0),
			PhoneDigitMin:  getEnvInt("PHONE_DIGITS_MIN", rules.PhoneDigitMin),
			PhoneDigitMax:  getEnvInt("PHONE_DIGITS_MAX", rules.PhoneDigitMax),
			NameLenMin:     getEnvInt("NAME_LENGTH_MIN", rules.NameLenMin),
			NameLenMax:     getEnvInt("NAME_LENGTH_MAX", rules.NameLenMax),
			TriggerPhrases: getEnvList("TRIGGER_PHRASES", nil),
		},
		Retrieval: RetrievalConfig{
			TopK:         getEnvInt("RETRIEVAL_TOP_K", 4),
			ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT cannot be negative")
	}
	if c.Form.RetryLimit < 0 {
		return fmt.Errorf("FORM_RETRY_LIMIT cannot be negative")
	}
	if c.Form.PhoneDigitMin <= 0 || c.Form.PhoneDigitMax < c.Form.PhoneDigitMin {
		return fmt.Errorf("phone digit range %d-%d is not usable", c.Form.PhoneDigitMin, c.Form.PhoneDigitMax)
	}
	if c.Form.NameLenMin <= 0 || c.Form.NameLenMax < c.Form.NameLenMin {
		return fmt.Errorf("name length range %d-%d is not usable", c.Form.NameLenMin, c.Form.NameLenMax)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be > 0")
	}
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be > 0")
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// LLMEnabled reports whether a chat model can be constructed at all.
func (c *Config) LLMEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// Rules returns the extractor bounds from the form knobs.
func (c *Config) Rules() extract.Rules {
	return extract.Rules{
		PhoneDigitMin: c.Form.PhoneDigitMin,
		PhoneDigitMax: c.Form.PhoneDigitMax,
		NameLenMin:    c.Form.NameLenMin,
		NameLenMax:    c.Form.NameLenMax,
	}
}

// SlogLevel parses LogLevel into a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
