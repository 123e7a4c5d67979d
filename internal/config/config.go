package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Gin modes accepted by gin.SetMode
const (
	GinModeDebug   = "debug"
	GinModeRelease = "release"
	GinModeTest    = "test"
)

// Session store backends
const (
	SessionStoreCookie   = "cookie"
	SessionStoreRedis    = "redis"
	SessionStoreDatabase = "database"
)

var (
	ErrMissingWebServiceURL = errors.New("WEBSERVICE_URL is not set")
	ErrMissingFileServerURL = errors.New("FTP_SERVER_URL is not set")
)

type Config struct {
	WebServiceURL  string        `yaml:"webservice_url"`
	FileServerURL  string        `yaml:"ftp_server_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	Env            string        `yaml:"env"`
	LogLevel       string        `yaml:"log_level"`
	GinMode        string        `yaml:"gin_mode"`
	SessionSecret  string        `yaml:"session_secret"`
	SessionStore   string        `yaml:"session_store"`
	RedisHost      string        `yaml:"redis_host"`
	RedisPort      string        `yaml:"redis_port"`
	DBDriver       string        `yaml:"db_driver"`
	DBDSN          string        `yaml:"db_dsn"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	OpenAIAPIKey   string        `yaml:"openai_api_key"`
}

func Load() *Config {
	return &Config{
		WebServiceURL:  getEnv("WEBSERVICE_URL", ""),
		FileServerURL:  getEnv("FTP_SERVER_URL", ""),
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
		Env:            getEnv("APP_ENV", "local"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		GinMode:        getEnv("GIN_MODE", GinModeDebug),
		SessionSecret:  getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:   getEnv("SESSION_STORE", SessionStoreCookie),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBDSN:          getEnv("DB_DSN", "sessions.db"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
	}
}

// LoadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current values.
func (cfg *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports every configuration problem at once.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.WebServiceURL == "" {
		errs = append(errs, ErrMissingWebServiceURL)
	} else if err := checkBaseURL(cfg.WebServiceURL); err != nil {
		errs = append(errs, fmt.Errorf("WEBSERVICE_URL: %w", err))
	}

	if cfg.FileServerURL == "" {
		errs = append(errs, ErrMissingFileServerURL)
	} else if err := checkBaseURL(cfg.FileServerURL); err != nil {
		errs = append(errs, fmt.Errorf("FTP_SERVER_URL: %w", err))
	}

	switch cfg.SessionStore {
	case SessionStoreCookie, SessionStoreRedis, SessionStoreDatabase:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE: unknown store %q", cfg.SessionStore))
	}

	switch cfg.GinMode {
	case GinModeDebug, GinModeRelease, GinModeTest:
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE: unknown mode %q", cfg.GinMode))
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether cookies should be marked Secure.
func (cfg *Config) IsProduction() bool {
	return cfg.GinMode == GinModeRelease
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
