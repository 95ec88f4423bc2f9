package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jgoulah/greenmeter/pkg/models"
)

// RecentReadingsKey is the Redis list holding the newest readings first
const RecentReadingsKey = "greenmeter:readings:recent"

// RedisClient mirrors recent readings into a capped Redis list
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
	limit  int64
}

// Options configures NewRedisClient
type Options struct {
	Addr     string
	Password string
	DB       int
	Limit    int
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(opts Options) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	ctx := context.Background()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, opts.Limit), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, limit int) *RedisClient {
	if limit <= 0 {
		limit = 1000
	}
	return &RedisClient{client: client, ctx: context.Background(), limit: int64(limit)}
}

// SaveReading pushes a reading onto the recent list and trims it. It lets
// the cache act as an archive sink.
func (r *RedisClient) SaveReading(reading models.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	_, err = r.client.TxPipelined(r.ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(r.ctx, RecentReadingsKey, data)
		pipe.LTrim(r.ctx, RecentReadingsKey, 0, r.limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store reading in Redis: %w", err)
	}
	return nil
}

// RecentReadings returns up to count readings, oldest first
func (r *RedisClient) RecentReadings(count int64) ([]models.Reading, error) {
	if count <= 0 {
		count = r.limit
	}

	items, err := r.client.LRange(r.ctx, RecentReadingsKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent readings: %w", err)
	}

	readings := make([]models.Reading, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var reading models.Reading
		if err := json.Unmarshal([]byte(items[i]), &reading); err != nil {
			continue // Skip entries we cannot decode
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

// Close closes the client
func (r *RedisClient) Close() error {
	return r.client.Close()
}
