package cache

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects the process-wide Redis client used for cooldown state
// and scan metrics. Redis is optional: an empty url leaves Client nil and
// callers degrade to in-memory behavior.
func InitRedis(ctx context.Context, url string) {
	if url == "" {
		log.Println("Redis disabled, cooldowns will not survive restarts")
		return
	}

	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	Client = client
	log.Println("Connected to Redis")
}
