package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// User store backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	UserBackend    string
	PostgresDSN    string
	RedisAddr      string
	RedisPassword  string
	SearchCacheTTL time.Duration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	CookieSecure   bool
	CORSOrigins    []string
	LogLevel       string
}

func Load() *Config {
	return &Config{
		Port:           getenv("PORT", "8080"),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "estatehub"),
		UserBackend:    strings.ToLower(getenv("USER_BACKEND", BackendMongo)),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		SearchCacheTTL: getduration("SEARCH_CACHE_TTL", time.Minute),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "listing-images"),
		MinioUseSSL:    getbool("MINIO_USE_SSL", false),
		MinioPublicURL: getenv("MINIO_PUBLIC_URL", ""),
		JWTSecret:      getenv("JWT_SECRET", ""),
		TokenTTL:       getduration("TOKEN_TTL", time.Hour),
		BcryptCost:     getint("BCRYPT_COST", 12),
		CookieSecure:   getbool("COOKIE_SECURE", false),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.UserBackend {
	case BackendMongo:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when USER_BACKEND=postgres"))
		}
	default:
		errs = append(errs, errors.New("USER_BACKEND must be mongo or postgres"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func getint(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
