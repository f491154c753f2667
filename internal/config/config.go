package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/models"
)

type Config struct {
	AppEnv     string
	ServerPort int

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	JWT_SECRET     string
	REFRESH_SECRET string
	CSRF_SECRET    string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	KAFKA_ADDRESS string

	UploadDir string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		AppEnv:         EnvDefault("APP_ENV", "development"),
		ServerPort:     EnvIntDefault("SERVER_PORT", 8080),
		DB_HOST:        os.Getenv("DB_HOST"),
		DB_PORT:        os.Getenv("DB_PORT"),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        os.Getenv("DB_NAME"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		CSRF_SECRET:    os.Getenv("CSRF_SECRET"),
		AccessTTL:      time.Hour,
		RefreshTTL:     7 * 24 * time.Hour,
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		UploadDir:      EnvDefault("UPLOAD_DIR", "uploads/leave-attachments"),
	}

	return config, nil
}

// Production returns true when cookies must carry the Secure flag.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) MustValidate() {
	MustNonEmpty(c.JWT_SECRET, "JWT_SECRET")
	MustNonEmpty(c.REFRESH_SECRET, "REFRESH_SECRET")
	MustNonEmpty(c.CSRF_SECRET, "CSRF_SECRET")
	if c.JWT_SECRET == c.REFRESH_SECRET {
		log.Fatal("JWT_SECRET and REFRESH_SECRET must differ")
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Leave{},
		&models.Announcement{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
