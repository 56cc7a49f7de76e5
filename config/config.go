package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI     = "openai"
	ProviderPerplexity = "perplexity"
	ProviderOffline    = "offline"

	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// ServerConfig holds everything the backend reads from the environment.
type ServerConfig struct {
	Port     string `env:"PORT" envDefault:"5000"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`

	OpenAI     OpenAIConfig
	Perplexity PerplexityConfig
	Store      StoreConfig
	Logging    LoggingConfig
}

type OpenAIConfig struct {
	APIKey      string  `env:"OPENAI_API_KEY"`
	BaseURL     string  `env:"OPENAI_BASE_URL"`
	Model       string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	MaxTokens   int     `env:"OPENAI_MAX_TOKENS" envDefault:"500"`
	Temperature float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.7"`
}

type PerplexityConfig struct {
	APIKey string `env:"PERPLEXITY_API_KEY"`
	URL    string `env:"PERPLEXITY_URL" envDefault:"https://api.perplexity.ai/chat/completions"`
	Model  string `env:"PERPLEXITY_MODEL" envDefault:"sonar"`
}

type StoreConfig struct {
	Backend        string `env:"STORE_BACKEND" envDefault:"memory"`
	DynamoEndpoint string `env:"DYNAMODB_ENDPOINT" envDefault:"http://localhost:8000"`
	DynamoRegion   string `env:"DYNAMODB_REGION" envDefault:"us-east-1"`
	DynamoTable    string `env:"DYNAMODB_TABLE" envDefault:"Exchanges"`
	PostgresURI    string `env:"POSTGRES_URI"`
	BoltPath       string `env:"BOLT_PATH" envDefault:"chatbot.db"`
}

type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding    string `env:"LOG_ENCODING" envDefault:"console"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"college-chatbot"`
}

// ClientConfig is read by the terminal front end and handed to the chat
// client explicitly.
type ClientConfig struct {
	BackendURL  string        `env:"CHAT_BACKEND_URL" envDefault:"http://127.0.0.1:5000"`
	DisplayMode string        `env:"CHAT_DISPLAY_MODE" envDefault:"transcript"`
	Timeout     time.Duration `env:"CHAT_TIMEOUT" envDefault:"0s"`

	Logging LoggingConfig
}

// LoadServer reads .env (if present) and the process environment.
func LoadServer() (*ServerConfig, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return parseServer(env.Options{})
}

func parseServer(opts env.Options) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse server config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient reads .env (if present) and the process environment.
func LoadClient() (*ClientConfig, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return parseClient(env.Options{})
}

func parseClient(opts env.Options) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	if cfg.BackendURL == "" {
		return nil, errors.New("CHAT_BACKEND_URL is empty")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("CHAT_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	return cfg, nil
}

func loadEnvFiles() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			// no .env file; the environment is supplied externally
			return nil
		}
		return err
	}
	return nil
}

// Validate checks that the selected provider and store are known and
// have what they need to start.
func (c *ServerConfig) Validate() error {
	missing := make([]string, 0, 2)

	switch c.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderPerplexity:
		if strings.TrimSpace(c.Perplexity.APIKey) == "" {
			missing = append(missing, "PERPLEXITY_API_KEY")
		}
	case ProviderOffline:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreDynamoDB:
	case StorePostgres:
		if strings.TrimSpace(c.Store.PostgresURI) == "" {
			missing = append(missing, "POSTGRES_URI")
		}
	case StoreBolt:
		if strings.TrimSpace(c.Store.BoltPath) == "" {
			missing = append(missing, "BOLT_PATH")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
