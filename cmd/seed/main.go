// Command seed fills a development database with demo users, follows and posts.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"kinship/internal/cache"
	"kinship/internal/chatroom"
	"kinship/internal/config"
	"kinship/internal/database"
	"kinship/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 20, "number of users to create")
	postsPerUser := flag.Int("posts", 3, "posts per user")
	ratio := flag.Float64("follow-ratio", 0.3, "chance that a user follows another user")
	seedValue := flag.Int64("seed", 0, "random seed (0 picks one)")
	clean := flag.Bool("clean", false, "clear existing data before seeding")
	noRooms := flag.Bool("no-rooms", false, "skip chat room provisioning for mutual pairs")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var rooms chatroom.Provisioner
	if !*noRooms {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() { _ = rdb.Close() }()
		rooms = chatroom.NewWriter(chatroom.NewRedisStore(rdb))
	}

	seeder := seed.NewSeeder(db, rooms, seed.Options{
		Users:        *numUsers,
		PostsPerUser: *postsPerUser,
		FollowRatio:  *ratio,
		Seed:         *seedValue,
	})

	log.Println("Starting database seeding...")
	if *clean {
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	if _, err := seeder.Run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Database seeded. Every account uses password %q", seed.DefaultPassword)
}
