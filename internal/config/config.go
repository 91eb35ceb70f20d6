package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"
)

// ErrMissingAPIKey is fatal at startup.
var ErrMissingAPIKey = errors.New("AI provider API key is not set (set GEMINI_API_KEY, OPENAI_API_KEY or ai.apiKey)")

type Config struct {
	Server struct {
		Port         int           `yaml:"port" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
		// APIKeys maps workspace id to its key. Empty disables auth.
		APIKeys   map[string]string `yaml:"apiKeys"`
		RateLimit struct {
			Capacity   int `yaml:"capacity" validate:"min=0"`
			RefillRate int `yaml:"refillRate" validate:"min=0"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json console"`
	} `yaml:"log"`

	AI struct {
		Provider string        `yaml:"provider" validate:"oneof=gemini openai heuristic"`
		APIKey   string        `yaml:"apiKey"`
		Model    string        `yaml:"model"`
		BaseURL  string        `yaml:"baseURL" validate:"omitempty,url"`
		Timeout  time.Duration `yaml:"timeout"`
		// RequestsPerMinute paces outbound calls; 0 means unlimited.
		RequestsPerMinute int `yaml:"requestsPerMinute" validate:"min=0"`
	} `yaml:"ai"`

	Workspace struct {
		LiveDelay     time.Duration `yaml:"liveDelay"`
		MaxConcurrent int           `yaml:"maxConcurrent" validate:"min=1,max=64"`
		// MaxWorkspaces caps live workspaces; the least recently used is closed past it.
		MaxWorkspaces int `yaml:"maxWorkspaces" validate:"min=1"`
	} `yaml:"workspace"`

	Database struct {
		Driver   string `yaml:"driver" validate:"omitempty,oneof=mysql postgres"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 3 * time.Minute
	c.Server.CORSOrigins = []string{"*"}
	c.Server.RateLimit.Capacity = 60
	c.Server.RateLimit.RefillRate = 1
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.AI.Provider = ProviderGemini
	c.AI.Timeout = 2 * time.Minute
	c.Workspace.LiveDelay = 1500 * time.Millisecond
	c.Workspace.MaxConcurrent = 4
	c.Workspace.MaxWorkspaces = 1024
	return &c
}

// Load baca file config.yaml (kalau ada), .env, lalu environment override.
// A missing file is not an error; a missing API key is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns CONFIG_PATH or the default config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		c.AI.Provider = strings.ToLower(v)
	}
	if c.AI.APIKey == "" || strings.HasPrefix(c.AI.APIKey, "${") {
		c.AI.APIKey = ""
		keys := []string{"GEMINI_API_KEY", "API_KEY"}
		if c.AI.Provider == ProviderOpenAI {
			keys = []string{"OPENAI_API_KEY", "API_KEY"}
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				c.AI.APIKey = v
				break
			}
		}
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("SCRIPTLENS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
		if c.Database.Driver == "" {
			c.Database.Driver = driverFromURL(v)
		}
	}
}

func driverFromURL(u string) string {
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return "postgres"
	}
	return "mysql"
}

var validate = validator.New()

// Validate checks field constraints and that the provider has credentials.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.AI.Provider != ProviderHeuristic && strings.TrimSpace(c.AI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ArchiveEnabled reports whether an archive database is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Database.Driver != "" && (c.Database.URL != "" || c.Database.Host != "")
}

// PublishEnabled reports whether reports can be published to MinIO.
func (c *Config) PublishEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}

// DSN returns the archive connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	if c.Database.Driver == "postgres" {
		return c.PostgresDSN()
	}
	return c.MySQLDSN()
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
