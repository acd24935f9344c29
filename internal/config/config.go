package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "RESULT_VIEWER_CONFIG"
	serverAddrEnv     = "SERVER_ADDR"
	ginModeEnv        = "GIN_MODE"
	logLevelEnv       = "LOG_LEVEL"
	backendURLEnv     = "BACKEND_URL"
	backendAPIKeyEnv  = "BACKEND_API_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	defaultLocaleEnv  = "DEFAULT_UI_LOCALE"
	contentOnlyEnv    = "CONTENT_ONLY_LANGUAGES"
	sessionIdleEnv    = "SESSION_IDLE_TIMEOUT"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	defaultConfigFile = "config.yaml"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Logging   LoggingConfig  `yaml:"logging"`
	Backend   BackendConfig  `yaml:"backend"`
	Database  DatabaseConfig `yaml:"database"`
	Redis     RedisConfig    `yaml:"redis"`
	Languages LanguageConfig `yaml:"languages"`
	Sessions  SessionConfig  `yaml:"sessions"`
	ChatGPT   ChatGPTConfig  `yaml:"chatgpt"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"ginMode"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BackendConfig describes the analysis backend endpoint.
type BackendConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// results in memory.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	CreateSchema bool   `yaml:"createSchema"`
}

// RedisConfig enables the shared translation memo when Addr is set.
type RedisConfig struct {
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

// LanguageConfig groups language and rating presentation settings.
type LanguageConfig struct {
	DefaultUILocale string   `yaml:"defaultUiLocale"`
	MaxRating       float64  `yaml:"maxRating"`
	ContentOnly     []string `yaml:"contentOnly"`
}

// SessionConfig controls how long idle views are kept.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// ChatGPTConfig switches translation to an OpenAI-compatible chat API when
// APIKey is set. Analysis still goes to the backend.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(ginModeEnv); v != "" {
		c.Server.GinMode = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(backendURLEnv); v != "" {
		c.Backend.Endpoint = v
	}

	if v := os.Getenv(backendAPIKeyEnv); v != "" {
		c.Backend.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}

	if v := os.Getenv(defaultLocaleEnv); v != "" {
		c.Languages.DefaultUILocale = v
	}

	if v, ok := os.LookupEnv(contentOnlyEnv); ok {
		c.Languages.ContentOnly = splitList(v)
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(sessionIdleEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sessions.IdleTimeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.Sessions.IdleTimeout = time.Duration(secs) * time.Second
		} else {
			log.Printf("config: invalid %s %q, keeping %s", sessionIdleEnv, v, c.Sessions.IdleTimeout)
		}
	}
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.GinMode != "" {
		base.Server.GinMode = override.Server.GinMode
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Backend.Endpoint != "" {
		base.Backend.Endpoint = override.Backend.Endpoint
	}
	if override.Backend.APIKey != "" {
		base.Backend.APIKey = override.Backend.APIKey
	}
	if override.Backend.Timeout > 0 {
		base.Backend.Timeout = override.Backend.Timeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.Addr != "" {
		base.Redis.Addr = override.Redis.Addr
	}
	if override.Redis.TTL > 0 {
		base.Redis.TTL = override.Redis.TTL
	}

	if override.Languages.DefaultUILocale != "" {
		base.Languages.DefaultUILocale = override.Languages.DefaultUILocale
	}
	if override.Languages.MaxRating > 0 {
		base.Languages.MaxRating = override.Languages.MaxRating
	}
	if override.Languages.ContentOnly != nil {
		base.Languages.ContentOnly = override.Languages.ContentOnly
	}

	if override.Sessions.IdleTimeout > 0 {
		base.Sessions.IdleTimeout = override.Sessions.IdleTimeout
	}
	if override.Sessions.SweepInterval > 0 {
		base.Sessions.SweepInterval = override.Sessions.SweepInterval
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.Timeout > 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080", GinMode: "release"},
		Logging: LoggingConfig{Level: "info"},
		Backend: BackendConfig{Endpoint: "http://localhost:5000", Timeout: 30 * time.Second},
		Redis:   RedisConfig{TTL: 24 * time.Hour},
		Languages: LanguageConfig{
			DefaultUILocale: "en",
			MaxRating:       10,
			ContentOnly:     []string{"kn"},
		},
		Sessions: SessionConfig{IdleTimeout: 30 * time.Minute, SweepInterval: time.Minute},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
	}
}
