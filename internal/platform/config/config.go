package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the client configuration
type Config struct {
	AccountService AccountServiceConfig `json:"accountService"`
	Storage        StorageConfig        `json:"storage"`
	Registration   RegistrationConfig   `json:"registration"`
	Debug          bool                 `json:"debug"`
}

// AccountServiceConfig points at the remote Account Service
type AccountServiceConfig struct {
	BaseURL      string        `json:"baseUrl"`
	RegisterPath string        `json:"registerPath"`
	Timeout      time.Duration `json:"timeout"`
	UserAgent    string        `json:"userAgent"`
}

// StorageConfig holds durable client storage configuration
type StorageConfig struct {
	Backend       string      `json:"backend"`
	Path          string      `json:"path"`
	Prefix        string      `json:"prefix"`
	EncryptionKey string      `json:"encryptionKey"`
	Redis         RedisConfig `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string        `json:"address"`
	Password     string        `json:"password"`
	Database     int           `json:"database"`
	PoolSize     int           `json:"poolSize"`
	MinIdleConns int           `json:"minIdleConns"`
	MaxConnAge   time.Duration `json:"maxConnAge"`
}

// RegistrationConfig holds timings of the registration view
type RegistrationConfig struct {
	RedirectDelay   time.Duration `json:"redirectDelay"`
	NotificationTTL time.Duration `json:"notificationTtl"`
}

// Defaults
const (
	DefaultAccountServiceURL = "http://localhost:8080/api"
	DefaultRegisterPath      = "/auth/register"
	DefaultTimeout           = 10 * time.Second
	DefaultStorageBackend    = "file"
	DefaultStoragePrefix     = "cafoot:"
	DefaultRedirectDelay     = 2000 * time.Millisecond
	DefaultNotificationTTL   = 6000 * time.Millisecond
)

var validBackends = []string{"memory", "file", "redis"}

// LoadFromEnv loads configuration from the environment.
// Precedence:
// 1. Explicit Environment Variables
// 2. Values from the .env file (if it exists)
// 3. Hardcoded defaults
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	// A missing .env is fine; the environment and defaults still apply.
	for _, envPath := range envPaths {
		if err := godotenv.Load(envPath); err == nil {
			break
		}
	}

	return build(func(key string) (string, bool) {
		v := os.Getenv(key)
		return v, v != ""
	})
}

// LoadFromFile loads configuration from a dotenv file only; the process
// environment is not consulted.
func LoadFromFile(path string) (*Config, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadFromMap(envMap)
}

// LoadFromMap loads configuration from an in-memory map.
// Used to test configuration logic without touching the process environment.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return build(func(key string) (string, bool) {
		v, ok := envMap[key]
		return v, ok
	})
}

type lookupFunc func(key string) (string, bool)

func build(lookup lookupFunc) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok {
			return value
		}
		return defaultValue
	}
	getInt := func(key string, defaultValue int) int {
		if value, ok := lookup(key); ok {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}
	getBool := func(key string, defaultValue bool) bool {
		if value, ok := lookup(key); ok {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}
	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, ok := lookup(key); ok {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	config := &Config{
		AccountService: AccountServiceConfig{
			BaseURL:      strings.TrimRight(get("ACCOUNT_SERVICE_URL", DefaultAccountServiceURL), "/"),
			RegisterPath: get("ACCOUNT_REGISTER_PATH", DefaultRegisterPath),
			Timeout:      getDuration("ACCOUNT_TIMEOUT", DefaultTimeout),
			UserAgent:    get("ACCOUNT_USER_AGENT", "cafoot-client"),
		},
		Storage: StorageConfig{
			Backend:       get("STORAGE_BACKEND", DefaultStorageBackend),
			Path:          get("STORAGE_PATH", defaultStoragePath()),
			Prefix:        get("STORAGE_PREFIX", DefaultStoragePrefix),
			EncryptionKey: get("STORAGE_ENCRYPTION_KEY", ""),
			Redis: RedisConfig{
				Address:      get("REDIS_ADDRESS", "localhost:6379"),
				Password:     get("REDIS_PASSWORD", ""),
				Database:     getInt("REDIS_DATABASE", 0),
				PoolSize:     getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
				MaxConnAge:   getDuration("REDIS_MAX_CONN_AGE", 30*time.Minute),
			},
		},
		Registration: RegistrationConfig{
			RedirectDelay:   getDuration("REGISTER_REDIRECT_DELAY", DefaultRedirectDelay),
			NotificationTTL: getDuration("NOTIFICATION_TTL", DefaultNotificationTTL),
		},
		Debug: getBool("DEBUG", false),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	u, err := url.Parse(c.AccountService.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "ACCOUNT_SERVICE_URL must be an absolute URL")
	}
	if !strings.HasPrefix(c.AccountService.RegisterPath, "/") {
		errors = append(errors, "ACCOUNT_REGISTER_PATH must start with /")
	}
	if c.AccountService.Timeout <= 0 {
		errors = append(errors, "ACCOUNT_TIMEOUT must be positive")
	}

	if !contains(validBackends, c.Storage.Backend) {
		errors = append(errors, fmt.Sprintf("STORAGE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}
	if c.Storage.Backend == "file" && strings.TrimSpace(c.Storage.Path) == "" {
		errors = append(errors, "STORAGE_PATH is required for the file backend")
	}
	if c.Storage.EncryptionKey != "" {
		if key, err := hex.DecodeString(c.Storage.EncryptionKey); err != nil || len(key) != 32 {
			errors = append(errors, "STORAGE_ENCRYPTION_KEY must be 64 hex characters")
		}
	}

	if c.Registration.RedirectDelay < 0 {
		errors = append(errors, "REGISTER_REDIRECT_DELAY must not be negative")
	}
	if c.Registration.NotificationTTL <= 0 {
		errors = append(errors, "NOTIFICATION_TTL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// RegisterURL is the absolute registration endpoint
func (c AccountServiceConfig) RegisterURL() string {
	return c.BaseURL + c.RegisterPath
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return ""
		}
		dir = home
	}
	return filepath.Join(dir, "cafoot", "storage.json")
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
