package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

// groupCache is a read-through cache in front of the group directory.
// Group display names are resolved on every drop validation, so the
// directory would otherwise be hit once per group per validation call.
type groupCache struct {
	client *redislib.Client
	inner  repository.GroupRepository
	prefix string
	ttl    time.Duration
}

// NewGroupCache decorates a GroupRepository with a Redis read-through cache.
func NewGroupCache(client *redislib.Client, inner repository.GroupRepository, ttl time.Duration) repository.GroupRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &groupCache{
		client: client,
		inner:  inner,
		prefix: "group:",
		ttl:    ttl,
	}
}

func (c *groupCache) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if cached, err := c.client.Get(ctx, c.key(id)).Result(); err == nil {
		var group domain.Group
		if err := json.Unmarshal([]byte(cached), &group); err == nil {
			return &group, nil
		}
	}

	group, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, group)
	return group, nil
}

func (c *groupCache) GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	groups := make([]domain.Group, 0, len(ids))
	var misses []string
	for _, id := range ids {
		cached, err := c.client.Get(ctx, c.key(id)).Result()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var group domain.Group
		if err := json.Unmarshal([]byte(cached), &group); err != nil {
			misses = append(misses, id)
			continue
		}
		groups = append(groups, group)
	}

	if len(misses) > 0 {
		fetched, err := c.inner.GetByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for i := range fetched {
			c.store(ctx, &fetched[i])
		}
		groups = append(groups, fetched...)
	}
	return groups, nil
}

func (c *groupCache) store(ctx context.Context, group *domain.Group) {
	payload, err := json.Marshal(group)
	if err != nil {
		return
	}
	// cache write failures are ignored; the directory stays authoritative
	_ = c.client.Set(ctx, c.key(group.ID), payload, c.ttl).Err()
}

func (c *groupCache) key(id string) string {
	return c.prefix + id
}
