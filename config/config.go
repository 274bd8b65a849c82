package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"newsroom-cms/models"
)

// Config is built once in main and passed down explicitly. No package-level
// state, no init-time env reads.
type Config struct {
	Port          string
	JWTSecret     []byte
	JWTExpiration time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// BlobChunkSize bounds working memory on the blob write and read paths.
	BlobChunkSize int

	RateLimitPerSecond float64
	RateLimitBurst     int
}

const DefaultBlobChunkSize = 255 * 1024

func Load() Config {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          []byte(getEnv("JWT_SECRET", "change-this-in-production")),
		JWTExpiration:      24 * time.Hour,
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "newsroom"),
		BlobChunkSize:      getEnvInt("BLOB_CHUNK_SIZE", DefaultBlobChunkSize),
		RateLimitPerSecond: 10,
		RateLimitBurst:     30,
	}

	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWTExpiration = d
		}
	}

	return cfg
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Migrate is shared with the test suites, which run against an in-memory
// sqlite database instead of postgres.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Article{},
		&models.Blob{},
		&models.BlobChunk{},
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
