package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Token    TokenConfig
	Apple    AppleConfig
	Kakao    KakaoConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// TokenConfig drives the internal session assertion: the server-held signing
// secret and the session validity window.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type AppleConfig struct {
	TeamID         string
	KeyID          string
	BundleID       string
	PrivateKeyPath string
	AuthKeysURL    string
	Issuer         string
	RevokeURL      string
	Freshness      time.Duration
}

type KakaoConfig struct {
	APIURL string
}

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "auth"),
			Password: getEnv("DB_PASSWORD", "auth"),
			DBName:   getEnv("DB_NAME", "authdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", ""),
			Expiry: getDurationEnv("TOKEN_EXPIRY", 24*time.Hour),
			Issuer: getEnv("TOKEN_ISSUER", "social-auth-service"),
		},
		Apple: AppleConfig{
			TeamID:         getEnv("APPLE_TEAM_ID", ""),
			KeyID:          getEnv("APPLE_KEY_ID", ""),
			BundleID:       getEnv("APPLE_BUNDLE_ID", ""),
			PrivateKeyPath: getEnv("APPLE_PRIVATE_KEY_PATH", "./keys/apple_auth_key.p8"),
			AuthKeysURL:    getEnv("APPLE_AUTH_KEYS_URL", "https://appleid.apple.com/auth/keys"),
			Issuer:         getEnv("APPLE_ISSUER", "https://appleid.apple.com"),
			RevokeURL:      getEnv("APPLE_REVOKE_URL", "https://appleid.apple.com/auth/revoke"),
			Freshness:      getDurationEnv("APPLE_TOKEN_FRESHNESS", time.Hour),
		},
		Kakao: KakaoConfig{
			APIURL: getEnv("KAKAO_API_URL", "https://kapi.kakao.com"),
		},
	}

	if cfg.Token.Secret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET must be set")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
