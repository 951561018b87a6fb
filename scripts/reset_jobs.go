// Dev helper: wipe the job ledger and put every non-published video back to
// draft. Run with: go run scripts/reset_jobs.go
package main

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_NAME", "clipstream"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	result := db.Exec("DELETE FROM processing_jobs")
	if result.Error != nil {
		log.Fatal("Failed to delete jobs:", result.Error)
	}
	fmt.Printf("Deleted %d jobs\n", result.RowsAffected)

	result = db.Exec("UPDATE videos SET status = 'draft' WHERE status = 'processing'")
	if result.Error != nil {
		log.Fatal("Failed to reset videos:", result.Error)
	}
	fmt.Printf("Reset %d videos to draft\n", result.RowsAffected)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
