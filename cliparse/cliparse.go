package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

const (
	DefaultPort = 3318

	StoreSQL   = "sql"
	StoreRedis = "redis"

	LogText = "text"
	LogJSON = "json"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	SettingsPath  string
	VoterSalt     string
	AdminKey      string
	SessionSecret string
	Store         string
	RedisAddr     string
	LogFormat     string
}

// BindFlags registers every option on fs. Empty values fall back to the
// environment in Resolve.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	// Network and storage (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port (PORT)")
	fs.StringVarP(&cfg.DatabaseURL, "database-url", "d", "", "Database URL (DATABASE_URL)")
	fs.StringVarP(&cfg.DatabaseType, "database-type", "t", "", "Database type, sqlite or postgres (DATABASE_TYPE)")
	fs.StringVar(&cfg.SettingsPath, "settings", "", "Widget settings YAML file (PICPOLL_SETTINGS)")
	fs.StringVar(&cfg.Store, "store", "", "Vote store backend, sql or redis (VOTE_STORE)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address or URL (REDIS_ADDR)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format, text or json (LOG_FORMAT)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.VoterSalt, "voter-salt", "", "Voter identity salt (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin API key (prefer env)")
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session token secret (prefer env)")
}

// Resolve fills unset options from the environment, applies defaults and
// validates what every command needs: a database and a known backend.
func Resolve(cfg Config) (Config, error) {
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	cfg.DatabaseURL = fallback(cfg.DatabaseURL, "DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	cfg.DatabaseType = fallback(cfg.DatabaseType, "DATABASE_TYPE", "sqlite")
	cfg.SettingsPath = fallback(cfg.SettingsPath, "PICPOLL_SETTINGS", "")
	cfg.Store = fallback(cfg.Store, "VOTE_STORE", StoreSQL)
	cfg.RedisAddr = fallback(cfg.RedisAddr, "REDIS_ADDR", "")
	cfg.LogFormat = fallback(cfg.LogFormat, "LOG_FORMAT", LogText)
	cfg.VoterSalt = fallback(cfg.VoterSalt, "VOTER_SALT", "")
	cfg.AdminKey = fallback(cfg.AdminKey, "ADMIN_KEY", "")
	cfg.SessionSecret = fallback(cfg.SessionSecret, "SESSION_SECRET", "")

	switch cfg.Store {
	case StoreSQL:
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("REDIS_ADDR required when VOTE_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("unknown vote store %q (want sql or redis)", cfg.Store)
	}

	switch cfg.LogFormat {
	case LogText, LogJSON:
	default:
		return Config{}, fmt.Errorf("unknown log format %q (want text or json)", cfg.LogFormat)
	}

	return cfg, nil
}

// ValidateServe checks the options only the HTTP server needs.
func (c Config) ValidateServe() error {
	// Secrets - MUST be provided
	if c.VoterSalt == "" {
		return errors.New("VOTER_SALT required")
	}
	return nil
}

// ParseFlags parses args and resolves them into a server config.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("picpoll", pflag.ContinueOnError)
	BindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := Resolve(cfg)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateServe(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fallback(value, env, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}
