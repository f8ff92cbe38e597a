package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server Server       `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Search SearchConfig `yaml:"search"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// Server holds HTTP listener and middleware settings.
type Server struct {
	Addr      string          `yaml:"addr"`
	StaticDir string          `yaml:"static_dir"` // empty = no static file serving
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CORSConfig holds cross-origin settings for the API endpoints.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds per-client-IP token bucket settings.
type RateLimitConfig struct {
	Enabled        bool     `yaml:"enabled"`
	RequestsPerMin int      `yaml:"requests_per_min"`
	Burst          int      `yaml:"burst"`
	TrustedProxies []string `yaml:"trusted_proxies,omitempty"`
}

// LLMConfig holds model routing and provider settings.
type LLMConfig struct {
	// DefaultModel is the primary target when the caller requests no model.
	DefaultModel string `yaml:"default_model"`
	// FallbackModel is attempted exactly once when the primary attempt fails.
	FallbackModel string `yaml:"fallback_model"`
	// PowerModel, when set, is promoted for long or complex queries.
	PowerModel string `yaml:"power_model,omitempty"`
	// CompletionTimeout bounds a single model attempt.
	CompletionTimeout time.Duration        `yaml:"completion_timeout"`
	Providers         []ProviderConfig     `yaml:"providers"`
	Models            []ModelConfig        `yaml:"models"`
	CircuitBreaker    CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ModelConfig is one entry of the static model catalog served by /api/models.
type ModelConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Provider     string   `yaml:"provider"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Region      string        `yaml:"region,omitempty"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// SearchConfig holds web search adapter settings.
type SearchConfig struct {
	Backend     string        `yaml:"backend"` // "duckduckgo", "searxng", "brave"
	Limit       int           `yaml:"limit"`
	Timeout     time.Duration `yaml:"timeout"`
	SearXNGURL  string        `yaml:"searxng_url,omitempty"`
	BraveAPIKey string        `yaml:"brave_api_key,omitempty"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: Server{
			Addr: ":3000",
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
			},
			RateLimit: RateLimitConfig{
				Enabled:        true,
				RequestsPerMin: 100,
				Burst:          20,
			},
		},
		LLM: LLMConfig{
			DefaultModel:      "openai/gpt-4o-mini",
			FallbackModel:     "meta-llama/llama-3.3-70b-instruct",
			CompletionTimeout: 60 * time.Second,
			Providers: []ProviderConfig{
				{Name: "openrouter", Type: "openrouter"},
			},
			Models: []ModelConfig{
				{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini", Provider: "openrouter", Capabilities: []string{"fast"}},
				{ID: "meta-llama/llama-3.3-70b-instruct", Name: "Llama 3.3 70B", Provider: "openrouter", Capabilities: []string{"fast"}},
				{ID: "anthropic/claude-sonnet-4", Name: "Claude Sonnet 4", Provider: "openrouter", Capabilities: []string{"reasoning"}},
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Search: SearchConfig{
			Backend: "duckduckgo",
			Limit:   5,
			Timeout: 5 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads configuration from path, layering defaults, the YAML file,
// MARK1_* environment overrides, and secret decryption. A missing file is
// not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	passphrase := os.Getenv("MARK1_CONFIG_KEY")
	if passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps MARK1_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARK1_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MARK1_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("MARK1_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORS.AllowedOrigins = splitAndTrim(v, ",")
	}
	if v := os.Getenv("MARK1_RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.RateLimit.RequestsPerMin = n
		}
	}

	if v := os.Getenv("MARK1_LLM_DEFAULT_MODEL"); v != "" {
		cfg.LLM.DefaultModel = v
	}
	if v := os.Getenv("MARK1_LLM_FALLBACK_MODEL"); v != "" {
		cfg.LLM.FallbackModel = v
	}
	if v := os.Getenv("MARK1_LLM_POWER_MODEL"); v != "" {
		cfg.LLM.PowerModel = v
	}

	// Provider API keys by type: MARK1_OPENROUTER_API_KEY, MARK1_OPENAI_API_KEY, ...
	for i := range cfg.LLM.Providers {
		envKey := "MARK1_" + strings.ToUpper(cfg.LLM.Providers[i].Type) + "_API_KEY"
		if v := os.Getenv(envKey); v != "" && cfg.LLM.Providers[i].APIKey == "" {
			cfg.LLM.Providers[i].APIKey = v
		}
	}

	if v := os.Getenv("MARK1_SEARCH_BACKEND"); v != "" {
		cfg.Search.Backend = v
	}
	if v := os.Getenv("MARK1_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.Limit = n
		}
	}
	if v := os.Getenv("MARK1_SEARXNG_URL"); v != "" {
		cfg.Search.SearXNGURL = v
	}
	if v := os.Getenv("MARK1_BRAVE_API_KEY"); v != "" {
		cfg.Search.BraveAPIKey = v
	}

	if v := os.Getenv("MARK1_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("MARK1_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("MARK1_TRACE_ENABLED"); v != "" {
		cfg.Tracer.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// decryptSecrets finds "enc:..." values in API keys and decrypts them.
func decryptSecrets(cfg *Config, passphrase string) error {
	for i := range cfg.LLM.Providers {
		key := cfg.LLM.Providers[i].APIKey
		if strings.HasPrefix(key, "enc:") {
			decrypted, err := DecryptValue(strings.TrimPrefix(key, "enc:"), passphrase)
			if err != nil {
				return fmt.Errorf("provider %s api_key: %w", cfg.LLM.Providers[i].Name, err)
			}
			cfg.LLM.Providers[i].APIKey = decrypted
		}
	}

	if strings.HasPrefix(cfg.Search.BraveAPIKey, "enc:") {
		decrypted, err := DecryptValue(strings.TrimPrefix(cfg.Search.BraveAPIKey, "enc:"), passphrase)
		if err != nil {
			return fmt.Errorf("search brave_api_key: %w", err)
		}
		cfg.Search.BraveAPIKey = decrypted
	}

	return nil
}

// EncryptValue encrypts a secret with AES-256-GCM for storage in config
// files as "enc:<value>".
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts an AES-256-GCM encrypted value.
func DecryptValue(encrypted, passphrase string) (string, error) {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid encrypted format")
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}

	data, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	key := deriveKey(passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	return string(plaintext), nil
}

// deriveKey uses Argon2id to derive a 32-byte key from passphrase + salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
