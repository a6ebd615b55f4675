package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the relay process reads from the environment.
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Provider  ProviderConfig
	Extractor ExtractorConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full.
	// Local environments default to disable; production must be explicit.
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// ProviderConfig points at the voice-AI provider's REST API. Per-tenant API
// keys live in the tenant store, not here.
type ProviderConfig struct {
	BaseURL string
}

// ExtractorConfig configures the transcript identity extractor. An empty
// APIKey disables AI extraction entirely; enrichment then relies on
// provider structured data alone.
type ExtractorConfig struct {
	APIKey string
	Model  string
}

const defaultProviderBaseURL = "https://api.vapi.ai"

func Load() (Config, error) {
	var c Config
	var errs []error

	c.App.Env = envString("APP_ENV")
	c.App.Port = envInt("APP_PORT", &errs)

	c.DB.Host = envString("DB_HOST")
	c.DB.Port = envInt("DB_PORT", &errs)
	c.DB.User = envString("DB_USER")
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = envString("DB_NAME")
	c.DB.SSLMode = envString("DB_SSLMODE")

	c.Redis.Host = envString("REDIS_HOST")
	c.Redis.Port = envInt("REDIS_PORT", &errs)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = envString("JWT_ISSUER")
	c.Auth.JWTAudience = envString("JWT_AUDIENCE")
	c.Auth.AccessTokenTTL = envDuration("JWT_ACCESS_TTL", 15*time.Minute)
	c.Auth.RefreshTokenTTL = envDuration("JWT_REFRESH_TTL", 30*24*time.Hour)

	c.Provider.BaseURL = envString("PROVIDER_BASE_URL")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}

	c.Extractor.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Extractor.Model = envString("OPENAI_MODEL")

	if c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = "disable"
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	errs = appendPortErr(errs, "APP_PORT", c.App.Port)

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	errs = appendPortErr(errs, "DB_PORT", c.DB.Port)
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		errs = append(errs, errors.New("DB_SSLMODE is required in production"))
	} else if !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	errs = appendPortErr(errs, "REDIS_PORT", c.Redis.Port)

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if !strings.HasPrefix(c.Provider.BaseURL, "http://") && !strings.HasPrefix(c.Provider.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PROVIDER_BASE_URL must be an http(s) URL, got %q", c.Provider.BaseURL))
	}

	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// PostgresDSN builds the connection string. It contains secrets; never log it.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, errs *[]error) int {
	v := envString(key)
	if v == "" {
		*errs = append(*errs, fmt.Errorf("%s is required", key))
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return 0
	}
	return n
}

// envDuration treats absent or unparseable values as the default; TTLs are
// tuning knobs, not required configuration.
func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(envString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func appendPortErr(errs []error, key string, port int) []error {
	if port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a valid port, got %d", key, port))
	}
	return errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	}
	return false
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	}
	return false
}
