// Command reconcile provisions chat rooms for every mutual-follow pair that lacks one.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinship/internal/cache"
	"kinship/internal/chatroom"
	"kinship/internal/config"
	"kinship/internal/database"
	"kinship/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	every := flag.Duration("every", 0, "repeat at this interval instead of running once")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	store := chatroom.NewRedisStore(rdb)
	reconciler := chatroom.NewReconciler(
		repository.NewFollowRepository(db),
		repository.NewUserRepository(db),
		store,
		chatroom.NewWriter(store),
	)

	if *every > 0 {
		log.Printf("Reconciling chat rooms every %s", *every)
		reconciler.RunEvery(ctx, *every)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	res, err := reconciler.Run(runCtx)
	if err != nil {
		log.Printf("Reconcile failed: %v", err)
		os.Exit(1)
	}
	log.Printf("Reconciled %d mutual pairs: %d provisioned, %d failed", res.Pairs, res.Provisioned, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
