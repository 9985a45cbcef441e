package main

import (
	"context"
	"log"

	"dms-gmail-addon/internal/bootstrap"
	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/server"
	"dms-gmail-addon/internal/tracer"

	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Redis (durable settings store)
	redisOpts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Panicf("Unable to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Panicf("Unable to connect to Redis: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(redisClient, cfg)

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
