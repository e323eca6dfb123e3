// Command main runs the database seeder for Zilean.
package main

import (
	"flag"
	"log"

	"zilean/internal/config"
	"zilean/internal/database"
	"zilean/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numWorks := flag.Int("works", 200, "Number of comics and stories to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d works, clean=%v\n", *numUsers, *numWorks, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumWorks:    *numWorks,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
