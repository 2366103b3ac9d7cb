// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Auth      AuthConfig      `koanf:"auth"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	Locale      string `koanf:"locale"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BackendConfig points at the managed data backend. Driver selects how it
// is reached: "rest" (PostgREST API), "postgres" (direct connection) or
// "memory" (in-process, development only).
type BackendConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	AnonKey         string        `koanf:"anon_key"`
	DatabaseURL     string        `koanf:"database_url"`
	Timeout         time.Duration `koanf:"timeout"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type AuthConfig struct {
	JWTSecret          string        `koanf:"jwt_secret"`
	JWKSURL            string        `koanf:"jwks_url"`
	Audience           string        `koanf:"audience"`
	MinPasswordLength  int           `koanf:"min_password_length"`
	SessionTTL         time.Duration `koanf:"session_ttl"`
	RefreshLeeway      time.Duration `koanf:"refresh_leeway"`
	PasswordRedirectTo string        `koanf:"password_redirect_to"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`

	// WriteRequests per minute is what one signed-in user may create
	// across projects, messages, ratings and partnership requests.
	WriteRequests int `koanf:"write_requests"`
	WriteBurst    int `koanf:"write_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Sharaka BFF",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.locale":      "ar",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"backend.driver":             "rest",
		"backend.timeout":            "15s",
		"backend.max_open_conns":     10,
		"backend.max_idle_conns":     2,
		"backend.conn_max_lifetime":  "1h",
		"backend.conn_max_idle_time": "30m",

		"auth.audience":            "authenticated",
		"auth.min_password_length": 6,
		"auth.session_ttl":         "720h",
		"auth.refresh_leeway":      "30s",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"rate_limit.requests":       100,
		"rate_limit.window":         "1m",
		"rate_limit.burst":          20,
		"rate_limit.auth_requests":  10,
		"rate_limit.auth_burst":     5,
		"rate_limit.write_requests": 30,
		"rate_limit.write_burst":    5,

		"cors.allowed_origins": []string{
			"http://localhost:5173",
			"http://localhost:5174",
		},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Session-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "sharaka-bff",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"APP_LOCALE":                  "app.locale",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"BACKEND_DRIVER":              "backend.driver",
	"SUPABASE_URL":                "backend.url",
	"SUPABASE_ANON_KEY":           "backend.anon_key",
	"DATABASE_URL":                "backend.database_url",
	"BACKEND_TIMEOUT":             "backend.timeout",
	"SUPABASE_JWT_SECRET":         "auth.jwt_secret",
	"AUTH_JWKS_URL":               "auth.jwks_url",
	"AUTH_AUDIENCE":               "auth.audience",
	"AUTH_SESSION_TTL":            "auth.session_ttl",
	"AUTH_PASSWORD_REDIRECT_TO":   "auth.password_redirect_to",
	"REDIS_URL":                   "redis.url",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_WRITE_REQUESTS":   "rate_limit.write_requests",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Backend.Driver {
	case "rest":
		if c.Backend.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the rest driver")
		}
		if c.Backend.AnonKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY is required for the rest driver")
		}
	case "postgres":
		if c.Backend.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		if c.Backend.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for authentication")
		}
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("memory backend cannot be used in production")
		}
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}

	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("one of SUPABASE_JWT_SECRET or AUTH_JWKS_URL is required")
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("auth.min_password_length must be positive")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthURL is the base of the auth provider API on the managed backend.
func (b *BackendConfig) AuthURL() string {
	return strings.TrimRight(b.URL, "/") + "/auth/v1"
}

// RestURL is the base of the table API on the managed backend.
func (b *BackendConfig) RestURL() string {
	return strings.TrimRight(b.URL, "/") + "/rest/v1"
}
