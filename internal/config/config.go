package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"littlelemon/internal/hash"
	"littlelemon/internal/models"
)

type Config struct {
	HTTP_ADDR      string
	LOG_LEVEL      string
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	JWT_SECRET     string
	REFRESH_SECRET string
	KAFKA_ADDRESS  string
	ADMIN_USERNAME string
	ADMIN_PASSWORD string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:      os.Getenv("HTTP_ADDR"),
		LOG_LEVEL:      os.Getenv("LOG_LEVEL"),
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
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		ADMIN_USERNAME: os.Getenv("ADMIN_USERNAME"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
	}
	if config.HTTP_ADDR == "" {
		config.HTTP_ADDR = ":8080"
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedGroups(db); err != nil {
		return nil, err
	}
	if err := SeedAdmin(db, cfg.ADMIN_USERNAME, cfg.ADMIN_PASSWORD); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.MenuItem{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.User{},
		&models.Group{},
		&models.RefreshToken{},
		&models.Book{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// SeedGroups makes sure the two role groups exist; membership is managed
// through the group admin endpoints.
func SeedGroups(db *gorm.DB) error {
	for _, name := range []string{models.GroupManager, models.GroupDeliveryCrew} {
		var g models.Group
		if err := db.Where(models.Group{Name: name}).FirstOrCreate(&g).Error; err != nil {
			return fmt.Errorf("group seed failed: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the initial staff account when ADMIN_USERNAME is set and
// no user with that name exists yet.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{Username: username, PasswordHash: hashed, IsStaff: true}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("admin seed failed: %w", err)
	}
	return nil
}
