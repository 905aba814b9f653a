package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/catmanduz/link-reminder/internal/domain"
)

// SaveLink stores a link and indexes it by ID and URL
func (s *Store) SaveLink(ctx context.Context, link *domain.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LinkKey(link.ID), data, 0)
		pipe.SAdd(ctx, KeyAllLinks, link.ID)
		pipe.HSet(ctx, KeyLinkURLs, link.URL, link.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}

	return nil
}

// GetLink retrieves a link from Redis by ID
func (s *Store) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	data, err := s.client.Get(ctx, LinkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	var link domain.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	return &link, nil
}

// FindLinkByURL retrieves the link saved under a normalized URL
func (s *Store) FindLinkByURL(ctx context.Context, url string) (*domain.Link, error) {
	id, err := s.client.HGet(ctx, KeyLinkURLs, url).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
		}
		return nil, fmt.Errorf("failed to look up url: %w", err)
	}

	return s.GetLink(ctx, id)
}

// GetAllLinks retrieves all links from Redis
func (s *Store) GetAllLinks(ctx context.Context) ([]*domain.Link, error) {
	ids, err := s.client.SMembers(ctx, KeyAllLinks).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get link IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Link{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = LinkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}

	links := make([]*domain.Link, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between SMEMBERS and MGET
			continue
		}
		var link domain.Link
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			// Skip records that cannot be decoded
			continue
		}
		links = append(links, &link)
	}

	return links, nil
}

// DeleteLink removes a link and its indexes from Redis
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	link, err := s.GetLink(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, LinkKey(id))
		pipe.SRem(ctx, KeyAllLinks, id)
		if link != nil {
			pipe.HDel(ctx, KeyLinkURLs, link.URL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	return nil
}

// ClearLinks removes every link record and index
func (s *Store) ClearLinks(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, KeyAllLinks).Result()
	if err != nil {
		return fmt.Errorf("failed to get link IDs: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, LinkKey(id))
	}
	pipe.Del(ctx, KeyAllLinks, KeyLinkURLs)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}

	return nil
}
