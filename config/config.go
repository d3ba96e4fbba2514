// Package config loads the agent configuration: built-in defaults, then an optional
// YAML file, then .env and process environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the immutable runtime configuration handed to every component.
type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Git        GitConfig        `yaml:"git"`
	Generation GenerationConfig `yaml:"generation"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	ServerAddr string           `yaml:"server_addr,omitempty"`
	Categories []string         `yaml:"categories"`
}

// BackendConfig selects and configures the text-generation backend.
type BackendConfig struct {
	// Provider is one of ollama, openai, deepseek, anthropic, gemini, mock.
	Provider string `yaml:"provider"`
	URL      string `yaml:"url,omitempty"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"`
	// TimeoutSeconds bounds every single backend call.
	TimeoutSeconds int `yaml:"timeout"`
}

// Timeout returns the per-call ceiling as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type ScheduleConfig struct {
	Time     string `yaml:"time"`
	Timezone string `yaml:"timezone"`
}

type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	AutoPush    bool   `yaml:"auto_push"`
	RepoPath    string `yaml:"repo_path"`
	Remote      string `yaml:"remote,omitempty"`
}

type GenerationConfig struct {
	MaxRetries           int     `yaml:"max_retries"`
	Temperature          float64 `yaml:"temperature"`
	TemperatureIncrement float64 `yaml:"temperature_increment"`
	MaxTokens            int     `yaml:"max_tokens"`
	IdeaTemperature      float64 `yaml:"idea_temperature"`
	IdeaMaxTokens        int     `yaml:"idea_max_tokens"`
}

// MirrorConfig configures the optional S3-compatible copy of accepted apps.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DefaultOllamaURL is the endpoint used when the ollama provider has no url.
// Hosted providers keep an empty url so their SDK default applies.
const DefaultOllamaURL = "http://host.docker.internal:11434"

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Provider:       "ollama",
			Model:          "qwen3-coder:14b-16k",
			TimeoutSeconds: 300,
		},
		Schedule: ScheduleConfig{Time: "03:00", Timezone: "UTC"},
		Git: GitConfig{
			AuthorName:  "SPA Agent",
			AuthorEmail: "spa-agent@autonomous.dev",
			RepoPath:    "/data/daily-spa-apps",
			Remote:      "origin",
		},
		Generation: GenerationConfig{
			MaxRetries:           3,
			Temperature:          0.7,
			TemperatureIncrement: 0.1,
			MaxTokens:            8192,
			IdeaTemperature:      0.9,
			IdeaMaxTokens:        256,
		},
		Mirror: MirrorConfig{Region: "us-east-1", Bucket: "daily-spa-apps"},
		Categories: []string{
			"game", "tool", "visualization", "animation", "productivity",
			"educational", "creative", "music", "simulation", "puzzle",
		},
	}
}

// LoadConfig reads the YAML file at path (a missing file keeps the defaults),
// loads .env if present, applies environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	if cfg.Backend.Provider == "ollama" && cfg.Backend.URL == "" {
		cfg.Backend.URL = DefaultOllamaURL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("LLM_PROVIDER"); v != "" {
		cfg.Backend.Provider = v
	}
	if v := firstNonEmpty(env("LLM_URL"), env("OLLAMA_URL")); v != "" {
		cfg.Backend.URL = v
	}
	if v := firstNonEmpty(env("LLM_MODEL"), env("OLLAMA_MODEL")); v != "" {
		cfg.Backend.Model = v
	}
	if v := env("LLM_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := env("REPO_PATH"); v != "" {
		cfg.Git.RepoPath = v
	}
	if v := env("AUTO_PUSH"); v != "" {
		cfg.Git.AutoPush = parseBool(v)
	}
	if v := env("SCHEDULE_TIME"); v != "" {
		cfg.Schedule.Time = v
	}
	if v := env("SCHEDULE_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := env("SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := env("MIRROR_ENABLED"); v != "" {
		cfg.Mirror.Enabled = parseBool(v)
	}
	if v := env("MIRROR_ENDPOINT"); v != "" {
		cfg.Mirror.Endpoint = v
	}
	if v := env("MIRROR_BUCKET"); v != "" {
		cfg.Mirror.Bucket = v
	}
	if v := env("MIRROR_ACCESS_KEY"); v != "" {
		cfg.Mirror.AccessKey = v
	}
	if v := env("MIRROR_SECRET_KEY"); v != "" {
		cfg.Mirror.SecretKey = v
	}
	if v := env("MIRROR_USE_SSL"); v != "" {
		cfg.Mirror.UseSSL = parseBool(v)
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.Provider) == "" {
		return errors.New("config: backend.provider is required")
	}
	if c.Backend.Provider != "mock" && strings.TrimSpace(c.Backend.Model) == "" {
		return errors.New("config: backend.model is required")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return errors.New("config: backend.timeout must be positive")
	}
	if c.Generation.MaxRetries < 1 {
		return errors.New("config: generation.max_retries must be at least 1")
	}
	if c.Generation.MaxTokens <= 0 || c.Generation.IdeaMaxTokens <= 0 {
		return errors.New("config: generation token limits must be positive")
	}
	if len(c.Categories) == 0 {
		return errors.New("config: at least one category is required")
	}
	if strings.TrimSpace(c.Git.RepoPath) == "" {
		return errors.New("config: git.repo_path is required")
	}
	if _, err := time.Parse("15:04", c.Schedule.Time); err != nil {
		return fmt.Errorf("config: schedule.time %q must be HH:MM", c.Schedule.Time)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("config: schedule.timezone: %w", err)
	}
	if c.Mirror.Enabled && (c.Mirror.Endpoint == "" || c.Mirror.Bucket == "") {
		return errors.New("config: mirror.endpoint and mirror.bucket are required when mirror is enabled")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
