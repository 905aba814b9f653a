package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/catmanduz/link-reminder/internal/domain"
)

// PutAlarm creates or replaces a timer registration
func (s *Store) PutAlarm(ctx context.Context, name string, when time.Time) error {
	err := s.client.ZAdd(ctx, KeyAlarms, redis.Z{
		Score:  float64(when.UnixMilli()),
		Member: name,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to put alarm: %w", err)
	}
	return nil
}

// RemoveAlarm deletes a registration and reports whether this call removed it.
// Concurrent removers of the same name see true at most once.
func (s *Store) RemoveAlarm(ctx context.Context, name string) (bool, error) {
	n, err := s.client.ZRem(ctx, KeyAlarms, name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove alarm: %w", err)
	}
	return n > 0, nil
}

// GetAlarm returns the fire time of a registration
func (s *Store) GetAlarm(ctx context.Context, name string) (time.Time, bool, error) {
	score, err := s.client.ZScore(ctx, KeyAlarms, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get alarm: %w", err)
	}
	return time.UnixMilli(int64(score)), true, nil
}

// NextAlarm returns the earliest registration
func (s *Store) NextAlarm(ctx context.Context) (domain.Alarm, bool, error) {
	zs, err := s.client.ZRangeWithScores(ctx, KeyAlarms, 0, 0).Result()
	if err != nil {
		return domain.Alarm{}, false, fmt.Errorf("failed to get next alarm: %w", err)
	}
	if len(zs) == 0 {
		return domain.Alarm{}, false, nil
	}
	return toAlarm(zs[0]), true, nil
}

// DueAlarms returns the registrations whose fire time is not after now, earliest first
func (s *Store) DueAlarms(ctx context.Context, now time.Time) ([]domain.Alarm, error) {
	zs, err := s.client.ZRangeByScoreWithScores(ctx, KeyAlarms, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get due alarms: %w", err)
	}
	return toAlarms(zs), nil
}

// AllAlarms returns every registration, earliest first
func (s *Store) AllAlarms(ctx context.Context) ([]domain.Alarm, error) {
	zs, err := s.client.ZRangeWithScores(ctx, KeyAlarms, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get alarms: %w", err)
	}
	return toAlarms(zs), nil
}

func toAlarms(zs []redis.Z) []domain.Alarm {
	alarms := make([]domain.Alarm, 0, len(zs))
	for _, z := range zs {
		alarms = append(alarms, toAlarm(z))
	}
	return alarms
}

func toAlarm(z redis.Z) domain.Alarm {
	name, _ := z.Member.(string)
	return domain.Alarm{Name: name, When: time.UnixMilli(int64(z.Score))}
}
