package main

import (
	"context"
	"flag"
	"os"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of demo users")
	flag.IntVar(&opts.RatingsPerUser, "ratings", opts.RatingsPerUser, "ratings attempted per user")
	flag.Float64Var(&opts.LikeRatio, "like-ratio", opts.LikeRatio, "share of ratings that are likes (0..1)")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()

	sum, err := seed.Run(context.Background(), app.New(database, redisCache, log), opts)
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("Seeding completed.", "users", sum.Users, "matches", sum.Matches)
}
