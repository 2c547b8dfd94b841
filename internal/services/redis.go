package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheDeviceToken caches a user's FCM token so notification dispatch can
// skip a database read on the hot path.
func CacheDeviceToken(ctx context.Context, userID uint, token string) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("user:fcm:%d", userID)
	return RedisClient.Set(ctx, key, token, 24*time.Hour).Err()
}

// GetCachedDeviceToken returns the cached FCM token for a user, or an empty
// string on a cache miss.
func GetCachedDeviceToken(ctx context.Context, userID uint) (string, error) {
	if RedisClient == nil {
		return "", redis.Nil
	}
	key := fmt.Sprintf("user:fcm:%d", userID)
	return RedisClient.Get(ctx, key).Result()
}

// DropCachedDeviceToken removes a user's cached FCM token, used when the
// device unregisters.
func DropCachedDeviceToken(ctx context.Context, userID uint) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("user:fcm:%d", userID)
	return RedisClient.Del(ctx, key).Err()
}

// PublishBookingUpdate publishes a booking request status change to Redis
// pub/sub so other instances can fan it out over their websocket hubs.
func PublishBookingUpdate(ctx context.Context, requestID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"requestId": requestID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}

// PublishCarUpdate publishes a car availability change to Redis pub/sub.
func PublishCarUpdate(ctx context.Context, carID uint, isActive bool) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"carId":     carID,
		"isActive":  isActive,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "car:updates", jsonData).Err()
}
