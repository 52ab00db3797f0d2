package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	Share  ShareConfig
	Rating RatingConfig
	Oracle OracleConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

// ShareConfig controls public share links and usage rankings.
type ShareConfig struct {
	TokenValidity time.Duration
	RankingsSize  int
}

// RatingConfig controls group rating behavior. AllowSelf decides whether a
// member may rate an outfit they shared themselves.
type RatingConfig struct {
	AllowSelf bool
}

// OracleConfig points at the external styling-suggestion service. When the
// API key is empty the service falls back to canned suggestions. WeatherURL
// is the forecast API consulted for weather-aware suggestions; a fetch
// failure degrades to default conditions, never an error.
type OracleConfig struct {
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	WeatherURL string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "wardrobe"),
			Password: getEnv("DB_PASSWORD", "wardrobe_secret"),
			Name:     getEnv("DB_NAME", "wardrobe"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Endpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
			PublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", getEnv("MINIO_ENDPOINT", "localhost:9000")),
			AccessKey:      getEnv("MINIO_ACCESS_KEY", "wardrobe"),
			SecretKey:      getEnv("MINIO_SECRET_KEY", "wardrobe_secret"),
			Bucket:         getEnv("MINIO_BUCKET", "wardrobe"),
			UseSSL:         getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Share: ShareConfig{
			TokenValidity: getEnvAsDuration("SHARE_TOKEN_VALIDITY", 30*24*time.Hour),
			RankingsSize:  getEnvAsInt("USAGE_RANKINGS_SIZE", 3),
		},
		Rating: RatingConfig{
			AllowSelf: getEnvAsBool("RATING_ALLOW_SELF", true),
		},
		Oracle: OracleConfig{
			URL:        getEnv("ORACLE_URL", "https://openrouter.ai/api/v1"),
			APIKey:     getEnv("ORACLE_API_KEY", ""),
			Model:      getEnv("ORACLE_MODEL", "z-ai/glm-4.5-air:free"),
			Timeout:    getEnvAsDuration("ORACLE_TIMEOUT", 60*time.Second),
			WeatherURL: getEnv("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
