package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Addon AddonConfig
	DMS   DMSConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
	Debug              bool
}

type AddonConfig struct {
	// JWTSecret verifies the bearer token the Gmail host attaches
	// to every inbound add-on request.
	JWTSecret string
}

type DMSConfig struct {
	// Defaults applied lazily when an installation has not saved
	// its own server URL / OAuth client yet.
	DefaultServerURL    string
	DefaultClientID     string
	DefaultClientSecret string
	OAuthScopes         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "https://gmail.google.com"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			Debug:              getEnvAsBool("ADDON_DEBUG", false),
		},
		Addon: AddonConfig{
			JWTSecret: getEnv("ADDON_JWT_SECRET", ""),
		},
		DMS: DMSConfig{
			DefaultServerURL:    getEnv("DMS_DEFAULT_SERVER_URL", "https://demo.dms.example.com/server"),
			DefaultClientID:     getEnv("DMS_DEFAULT_CLIENT_ID", ""),
			DefaultClientSecret: getEnv("DMS_DEFAULT_CLIENT_SECRET", ""),
			OAuthScopes:         getEnv("DMS_OAUTH_SCOPES", "documents workflows"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
