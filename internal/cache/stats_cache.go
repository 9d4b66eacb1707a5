package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StatsCache кэш статистики обменов в Redis. Кэш строго необязательный:
// промах или недоступность Redis означают поход в базу, не ошибку
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(addr string, ttl time.Duration) *StatsCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID uuid.UUID) string {
	return fmt.Sprintf("swap_stats:%s", userID)
}

// Get возвращает (nil, nil) при промахе или ошибке Redis
func (c *StatsCache) Get(ctx context.Context, userID uuid.UUID) (*model.SwapStats, error) {
	data, err := c.client.Get(ctx, statsKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached stats: %w", err)
	}

	var stats model.SwapStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}

	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, userID uuid.UUID, stats *model.SwapStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached stats: %w", err)
	}

	return nil
}

// Invalidate сбрасывает кэш обеих сторон после завершения обмена
func (c *StatsCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, statsKey(id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached stats: %w", err)
	}

	return nil
}

func (c *StatsCache) Close() error {
	return c.client.Close()
}
