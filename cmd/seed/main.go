package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/tair/micro-marketplace/pkg/auth"
	"github.com/tair/micro-marketplace/pkg/database"
	"github.com/tair/micro-marketplace/pkg/logger"
)

// Seeds both service databases with demo users and products so a fresh
// stack has something to browse. Safe to run repeatedly.
func main() {
	logger.Init("seed", true)

	userDB, err := openDB(getEnv("USER_DB_NAME", "userdb"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to user database")
	}
	defer userDB.Close()

	productDB, err := openDB(getEnv("PRODUCT_DB_NAME", "productdb"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to product database")
	}
	defer productDB.Close()

	ownerID, err := seedUsers(userDB)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to seed users")
	}

	if err := seedProducts(productDB, ownerID); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to seed products")
	}

	logger.Logger.Info().Msg("Seeding complete")
}

func openDB(name string) (*sql.DB, error) {
	return database.NewPostgresConnection(database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   name,
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	})
}

// seedUsers inserts the demo accounts and returns the first one's ID,
// which owns every seeded product.
func seedUsers(db *sql.DB) (int64, error) {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		_, err := db.Exec(
			`INSERT INTO users (email, password, created_at, updated_at)
			 VALUES ($1, $2, $3, $3)
			 ON CONFLICT (email) DO NOTHING`,
			email, hash, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert user %s: %w", email, err)
		}
		logger.Logger.Info().Str("email", email).Msg("Seeded user")
	}

	var ownerID int64
	if err := db.QueryRow(`SELECT id FROM users WHERE email = $1`, "alice@example.com").Scan(&ownerID); err != nil {
		return 0, fmt.Errorf("look up seed owner: %w", err)
	}
	return ownerID, nil
}

func seedProducts(db *sql.DB, ownerID int64) error {
	var existing int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM products WHERE owner_id = $1`, ownerID).Scan(&existing); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		logger.Logger.Info().Int64("count", existing).Msg("Products already seeded, skipping")
		return nil
	}

	now := time.Now()
	for i := 1; i <= 10; i++ {
		_, err := db.Exec(
			`INSERT INTO products (title, price, description, image, owner_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			fmt.Sprintf("Product %d", i),
			float64(i*100),
			fmt.Sprintf("This is a description for Product %d. contain search terms like gadget or widget.", i),
			fmt.Sprintf("https://picsum.photos/seed/%d/200/300", i),
			ownerID,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert product %d: %w", i, err)
		}
	}

	logger.Logger.Info().Int("count", 10).Msg("Seeded products")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
