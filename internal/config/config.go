package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort     string
	CORSOrigins string

	// Command journal (optional)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Snapshot export (optional)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool
}

// JournalEnabled reports whether a database is configured for the command journal.
func (c *Config) JournalEnabled() bool { return c.DBHost != "" }

// ExportEnabled reports whether object storage is configured for snapshot exports.
func (c *Config) ExportEnabled() bool { return c.MinioEndpoint != "" }

// HostConfig configures the simulated CAD host.
type HostConfig struct {
	RelayURL        string
	ProjectName     string
	CommandInterval time.Duration
	ExportInterval  time.Duration
	RequestTimeout  time.Duration
}

// LoadEnvFile loads a .env file from the working directory if one exists.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}
}

// LoadConfig loads the relay configuration from environment variables.
func LoadConfig() (*Config, error) {
	LoadEnvFile()

	minioSSL := false
	if sslEnv := os.Getenv("MINIO_SSL"); sslEnv != "" {
		val, err := strconv.ParseBool(sslEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_SSL value: %v", err)
		}
		minioSSL = val
	}
	cfg := &Config{
		AppPort:        getEnv("RELAY_PORT", "8080"),
		CORSOrigins:    getEnv("RELAY_CORS_ORIGINS", "*"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		MinioSSL:       minioSSL,
	}
	if cfg.DBHost != "" && (cfg.DBUser == "" || cfg.DBName == "") {
		return nil, fmt.Errorf("database configuration is incomplete")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "") {
		return nil, fmt.Errorf("minio configuration is incomplete")
	}
	return cfg, nil
}

// LoadHostConfig loads the host simulator configuration from environment variables.
func LoadHostConfig() (*HostConfig, error) {
	LoadEnvFile()

	cfg := &HostConfig{
		RelayURL:    getEnv("RELAY_URL", "http://localhost:8080"),
		ProjectName: os.Getenv("HOST_PROJECT_NAME"),
	}
	var err error
	if cfg.CommandInterval, err = getEnvAsDuration("HOST_COMMAND_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.ExportInterval, err = getEnvAsDuration("HOST_EXPORT_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvAsDuration("HOST_REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s value: must be positive", key)
	}
	return d, nil
}
