// Command seed fills the database with demo developer profiles.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"devfolio/internal/config"
	"devfolio/internal/database"
	"devfolio/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of profiles to create")
	shouldClean := flag.Bool("clean", false, "Delete all users before seeding")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	flag.Parse()

	log.Printf("Seeding %d profiles (clean=%v)", *numUsers, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	s := seed.NewSeeder(db, *seedValue)

	if *shouldClean {
		if err := s.Clear(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedProfiles(ctx, *numUsers, seed.DefaultPassword)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d profiles. All accounts use the password: %s", len(users), seed.DefaultPassword)
}
