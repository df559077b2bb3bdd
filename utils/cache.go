package utils

import (
	"context"
	"log"
	"time"

	"flightbot/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionClient holds per-conversation dialog state.
	SessionClient *redis.Client
)

// InitSessionCache connects the Redis client used for dialog sessions.
func InitSessionCache() {
	SessionClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionClient returns the session Redis client, connecting on first use.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionCache()
	}
	return SessionClient
}
