package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/totegamma/tubesage/internal/domain"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Generation Generation `yaml:"generation"`
	Platform   Platform   `yaml:"platform"`
	Chat       Chat       `yaml:"chat"`
	Auth       Auth       `yaml:"auth"`
}

type Server struct {
	Listen         string   `yaml:"listen"`
	Database       string   `yaml:"database"` // postgres, sqlite
	PostgresDsn    string   `yaml:"postgresDsn"`
	SqlitePath     string   `yaml:"sqlitePath"`
	RedisAddr      string   `yaml:"redisAddr"`
	RedisPassword  string   `yaml:"redisPassword"`
	RedisDB        int      `yaml:"redisDB"`
	MemcachedAddr  string   `yaml:"memcachedAddr"`
	EnableTrace    bool     `yaml:"enableTrace"`
	TraceEndpoint  string   `yaml:"traceEndpoint"`
	LogMode        string   `yaml:"logMode"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Generation struct {
	Backend  string        `yaml:"backend"` // http, openai, gemini
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Platform struct {
	ProbeTimeout time.Duration `yaml:"probeTimeout"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

type Chat struct {
	Scope      domain.ChatScope `yaml:"scope"`
	SessionTTL time.Duration    `yaml:"sessionTTL"`
	CookieName string           `yaml:"cookieName"`
	History    int              `yaml:"history"`
}

type Auth struct {
	JWTSecret   string `yaml:"jwtSecret"`
	TrustHeader bool   `yaml:"trustHeader"`
}

// Default returns a configuration usable for local development.
func Default() Config {
	return Config{
		Server: Server{
			Listen:     ":8000",
			Database:   "postgres",
			SqlitePath: "tubesage.db",
			RedisAddr:  "localhost:6379",
			LogMode:    "development",
		},
		Generation: Generation{
			Backend:  "http",
			Endpoint: "http://localhost:5000",
			Timeout:  2 * time.Minute,
		},
		Platform: Platform{
			ProbeTimeout: 3 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		Chat: Chat{
			Scope:      domain.ChatScopeOwner,
			SessionTTL: time.Hour,
			CookieName: "chat_session",
			History:    20,
		},
	}
}

func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to decode config")
		}
	}

	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("TUBESAGE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("TUBESAGE_POSTGRES_DSN"); v != "" {
		c.Server.PostgresDsn = v
	}
	if c.Generation.APIKey == "" {
		switch c.Generation.Backend {
		case "openai":
			c.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.Generation.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
}

func (c Config) Validate() error {
	if !c.Chat.Scope.Valid() {
		return errors.Errorf("chat.scope must be %q or %q, got %q", domain.ChatScopeOwner, domain.ChatScopeVideo, c.Chat.Scope)
	}
	switch c.Server.Database {
	case "postgres":
		if c.Server.PostgresDsn == "" {
			return errors.New("server.postgresDsn is required for the postgres database")
		}
	case "sqlite":
	default:
		return errors.Errorf("unknown server.database %q", c.Server.Database)
	}
	switch c.Generation.Backend {
	case "http":
		if c.Generation.Endpoint == "" {
			return errors.New("generation.endpoint is required for the http backend")
		}
	case "openai", "gemini":
		if c.Generation.APIKey == "" {
			return errors.Errorf("generation.apiKey is required for the %s backend", c.Generation.Backend)
		}
		if c.Generation.Endpoint == "" {
			return errors.New("generation.endpoint is required for transcripts")
		}
	default:
		return errors.Errorf("unknown generation.backend %q", c.Generation.Backend)
	}
	if c.Chat.SessionTTL <= 0 {
		return errors.New("chat.sessionTTL must be positive")
	}
	return nil
}
