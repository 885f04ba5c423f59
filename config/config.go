package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends understood by store.Open.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

// Durable storage keys for the session mirror.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

type APIConfig struct {
	BaseURL string
}

type AppConfig struct {
	Name        string
	Description string
}

type AuthConfig struct {
	TokenKey string
	UserKey  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

type StorageConfig struct {
	Backend string
	Path    string
}

type Config struct {
	API      APIConfig
	App      AppConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LogLevel string
}

// Load reads a .env file when present, then the process environment, falling
// back to fixed defaults for anything unset.
func Load() Config {
	// A missing .env is normal; the OS environment is used instead.
	_ = godotenv.Load()

	return Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("TECHDOCS_API_URL", "http://localhost:8080"), "/"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("TECHDOCS_APP_NAME", "Technical Documentation"),
			Description: getEnvOrDefault("TECHDOCS_APP_DESCRIPTION", "Technical Documentation System"),
		},
		Auth: AuthConfig{
			TokenKey: TokenKey,
			UserKey:  UserKey,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnvOrDefault("TECHDOCS_STORAGE", StorageSQLite)),
			Path:    getEnvOrDefault("TECHDOCS_STORAGE_PATH", defaultStoragePath()),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("TECHDOCS_DB_HOST", "localhost"),
			Port:     getIntOrDefault("TECHDOCS_DB_PORT", 5432),
			Name:     getEnvOrDefault("TECHDOCS_DB_NAME", "technical_docs"),
			User:     getEnvOrDefault("TECHDOCS_DB_USER", "root"),
			Password: os.Getenv("TECHDOCS_DB_PASSWORD"),
			SSLMode:  getEnvOrDefault("TECHDOCS_DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:      getEnvOrDefault("TECHDOCS_REDIS_ADDR", "localhost:6379"),
			Password:  os.Getenv("TECHDOCS_REDIS_PASSWORD"),
			DB:        getIntOrDefault("TECHDOCS_REDIS_DB", 0),
			Namespace: getEnvOrDefault("TECHDOCS_REDIS_NAMESPACE", "techdocs"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "warn"),
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".techdocs", "session.db")
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// Unparseable numbers fall back to the default rather than failing startup.
func getIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
