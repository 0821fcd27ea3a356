package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	CartModeLocal  = "local"
	CartModeRemote = "remote"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	PricingSession = "session"
	PricingLocal   = "local"
)

type Config struct {
	AppEnv          string
	Port            string
	CartMode        string
	CartStore       string
	CartStoreFile   string
	PricingSource   string
	CartKey         string
	CartCacheSize   int
	CartTTL         time.Duration
	UpstreamURL     string
	UpstreamTimeout time.Duration
	CSRFHeader      string
	SessionSecret   string
	SessionTTL      time.Duration
	RedisURL        string
	RedisAddr       string
	RedisPassword   string
	CatalogCacheTTL time.Duration
	DatabaseURL     string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	MigrationsDir   string
	OriginURL       string

	envFileLoaded bool
}

var AppConfig *Config

// LoadConfig reads .env (when present) and the process environment into
// AppConfig and returns it.
func LoadConfig() *Config {
	envLoaded := godotenv.Load() == nil

	AppConfig = &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("APP_PORT", getEnv("PORT", "8082")),
		CartMode:        getEnv("CART_MODE", CartModeLocal),
		CartStore:       getEnv("CART_STORE", StoreMemory),
		CartStoreFile:   getEnv("CART_STORE_FILE", "./data/carts.json"),
		PricingSource:   getEnv("PRICING_SOURCE", PricingSession),
		CartKey:         getEnv("CART_KEY", "greenbasket_cart"),
		CartCacheSize:   getEnvInt("CART_CACHE_SIZE", 1024),
		CartTTL:         getEnvDuration("CART_TTL", 0),
		UpstreamURL:     getEnv("UPSTREAM_URL", ""),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		CSRFHeader:      getEnv("CSRF_HEADER", "X-CSRF-TOKEN"),
		SessionSecret:   getEnv("SESSION_SECRET", "secret"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBHost:          getEnv("DB_HOST", ""),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "greenbasket"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "database/migration"),
		OriginURL:       getEnv("ORIGIN_URL", ""),
	}
	AppConfig.envFileLoaded = envLoaded

	return AppConfig
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasDatabase reports whether a product catalog database is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != "" || c.DBHost != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

// Log writes the effective configuration, without secrets.
func (c *Config) Log(logger *zap.Logger) {
	if !c.envFileLoaded {
		logger.Info(".env file not found, using system environment variables")
	}
	logger.Info("configuration loaded",
		zap.String("environment", c.AppEnv),
		zap.String("port", c.Port),
		zap.String("cart_mode", c.CartMode),
		zap.String("cart_store", c.CartStore),
		zap.String("pricing_source", c.PricingSource),
		zap.Bool("database", c.HasDatabase()),
		zap.Bool("redis", c.HasRedis()),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
