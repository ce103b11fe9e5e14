// Command migrate applies the database schema.
//
// Connect runs AutoMigrate automatically outside production; this command
// exists to apply the same schema deliberately in production deployments.
package main

import (
	"log"

	"intranet/internal/config"
	"intranet/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Database schema is up to date")
}
