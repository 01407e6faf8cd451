// README: Quote cache backed by Redis.
package fare

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const quoteKeyFormat = "fare:quote:%d:%s"

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redis *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

func (s *Store) GetQuote(ctx context.Context, version int64, key string) (PriceBreakdown, bool, error) {
	val, err := s.redis.Get(ctx, quoteKey(version, key)).Result()
	if err == redis.Nil {
		return PriceBreakdown{}, false, nil
	}
	if err != nil {
		return PriceBreakdown{}, false, err
	}
	var bd PriceBreakdown
	if err := json.Unmarshal([]byte(val), &bd); err != nil {
		return PriceBreakdown{}, false, err
	}
	return bd, true, nil
}

func (s *Store) PutQuote(ctx context.Context, version int64, key string, bd PriceBreakdown) error {
	data, err := json.Marshal(bd)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, quoteKey(version, key), data, s.ttl).Err()
}

func quoteKey(version int64, key string) string {
	return fmt.Sprintf(quoteKeyFormat, version, key)
}
