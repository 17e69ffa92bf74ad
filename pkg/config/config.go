// Package config loads the investor engine's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL          = "http://localhost:3000"
	DefaultAPIVersion       = "v1"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultResourceTimeout  = 60 * time.Second
	DefaultRegisterMaxBytes = 256 << 10
	DefaultCountry          = "US"
	DefaultFirestoreColl    = "investor-cache"
)

// RedisConfig selects Redis for credentials and large cache slots.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GCSConfig selects a Cloud Storage bucket for large cache slots.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// FirestoreConfig selects a Firestore collection for large cache slots.
type FirestoreConfig struct {
	ProjectID  string
	Collection string
}

// PubSubConfig enables fetch telemetry.
type PubSubConfig struct {
	ProjectID string
	TopicID   string
}

// Config holds application configuration.
type Config struct {
	BaseURL         string
	APIVersion      string
	RequestTimeout  time.Duration
	ResourceTimeout time.Duration

	CacheDir string
	// RegisterMaxBytes is the largest payload kept in the SQLite register;
	// anything bigger goes to the large-slot backend.
	RegisterMaxBytes int
	DefaultCountry   string

	LogLevel  string
	LogPretty bool

	// AuthToken seeds the credential store. Empty means signed out.
	AuthToken string

	Redis     RedisConfig
	GCS       GCSConfig
	Firestore FirestoreConfig
	PubSub    PubSubConfig
}

// Load reads a .env file if present (or the given files), then the
// environment, and validates the result.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	var errs []error
	cfg := &Config{
		BaseURL:          getEnv("INVESTOR_API_BASE_URL", DefaultBaseURL),
		APIVersion:       getEnv("INVESTOR_API_VERSION", DefaultAPIVersion),
		RequestTimeout:   getEnvAsDuration("INVESTOR_REQUEST_TIMEOUT", DefaultRequestTimeout, &errs),
		ResourceTimeout:  getEnvAsDuration("INVESTOR_RESOURCE_TIMEOUT", DefaultResourceTimeout, &errs),
		CacheDir:         getEnv("INVESTOR_CACHE_DIR", defaultCacheDir()),
		RegisterMaxBytes: getEnvAsInt("INVESTOR_REGISTER_MAX_BYTES", DefaultRegisterMaxBytes, &errs),
		DefaultCountry:   getEnv("INVESTOR_DEFAULT_COUNTRY", DefaultCountry),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false, &errs),
		AuthToken:        os.Getenv("INVESTOR_AUTH_TOKEN"),
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0, &errs),
		},
		GCS: GCSConfig{
			Bucket: os.Getenv("GCS_BUCKET"),
			Prefix: getEnv("GCS_PREFIX", "investor/"),
		},
		Firestore: FirestoreConfig{
			ProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
			Collection: getEnv("FIRESTORE_COLLECTION", DefaultFirestoreColl),
		},
		PubSub: PubSubConfig{
			ProjectID: os.Getenv("PUBSUB_PROJECT_ID"),
			TopicID:   os.Getenv("PUBSUB_TOPIC_ID"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("INVESTOR_API_BASE_URL is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ResourceTimeout <= 0 {
		return fmt.Errorf("resource timeout must be positive, got %s", c.ResourceTimeout)
	}
	if c.ResourceTimeout < c.RequestTimeout {
		return fmt.Errorf("resource timeout %s is shorter than request timeout %s", c.ResourceTimeout, c.RequestTimeout)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("INVESTOR_CACHE_DIR is required")
	}
	if c.RegisterMaxBytes <= 0 {
		return fmt.Errorf("register max bytes must be positive, got %d", c.RegisterMaxBytes)
	}
	if c.PubSub.TopicID != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("PUBSUB_PROJECT_ID is required when PUBSUB_TOPIC_ID is set")
	}
	return nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".investor-cache")
	}
	return filepath.Join(dir, "go-investor")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
