package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AddCategory records a category once; the first insertion time fixes its position
func (s *Store) AddCategory(ctx context.Context, category string) error {
	err := s.client.ZAddNX(ctx, KeyCategories, redis.Z{
		Score:  float64(time.Now().UnixMicro()),
		Member: category,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	return nil
}

// GetCategories returns the categories in insertion order
func (s *Store) GetCategories(ctx context.Context) ([]string, error) {
	cats, err := s.client.ZRange(ctx, KeyCategories, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return cats, nil
}
