package config

import (
	"os"
	"strconv"
	"time"

	"action_items/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	JWTTTL        time.Duration
	AllowedOrigin string

	DBMaxConns int32

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
	SyncRateLimit  int
	SyncRateWindow time.Duration
}

// Load reads the configuration from the environment (and .env when present)
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "5000"
	}

	// CLIENT_URL is what the original web client deployment sets
	origin := os.Getenv("ALLOWED_ORIGIN")
	if origin == "" {
		origin = os.Getenv("CLIENT_URL")
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		JWTSecret:      jwtSecret,
		JWTTTL:         time.Duration(intEnv("JWT_TTL_HOURS", 24*7)) * time.Hour,
		AllowedOrigin:  origin,
		DBMaxConns:     int32(intEnv("DB_MAX_CONNS", 10)),
		LogLevel:       stringEnv("LOG_LEVEL", "info"),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        intEnv("REDIS_DB", 0),
		APIRateLimit:   intEnv("API_RATE_LIMIT", 120),
		APIRateWindow:  time.Duration(intEnv("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AuthRateLimit:  intEnv("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: time.Duration(intEnv("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		SyncRateLimit:  intEnv("SYNC_RATE_LIMIT", 30),
		SyncRateWindow: time.Duration(intEnv("SYNC_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intEnv returns a positive integer from env, or def
func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
