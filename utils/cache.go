// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"easyservice/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient holds conversation working memory when SESSION_BACKEND=redis.
var SessionCacheClient *redis.Client

// InitSessionCache connects the Redis client used for conversation sessions.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the session Redis client, connecting on first use.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}
