package services

import (
	"context"
	"fmt"
	"time"

	"license-api/internal/database"

	"github.com/redis/go-redis/v9"
)

// RateLimitService throttles reseller API calls per API key. A fixed
// one-minute window counter in Redis: the first hit creates the key with
// an expiry, every hit increments it.
type RateLimitService struct {
	client *redis.Client
	limit  int
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(limitPerMinute int) *RateLimitService {
	return &RateLimitService{
		client: database.GetRedis(),
		limit:  limitPerMinute,
	}
}

// Allow reports whether the API key may make another request this minute.
// Redis being down fails open: throttling is protective, not a contract.
func (s *RateLimitService) Allow(ctx context.Context, apiKey string) (bool, error) {
	if s.client == nil || s.limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:reseller:%s", apiKey)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, time.Minute).Err(); err != nil {
			return true, err
		}
	}

	return count <= int64(s.limit), nil
}
