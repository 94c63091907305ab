package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scaledrill/internal/model"
)

// PresetCache handles Redis operations for preset metadata
type PresetCache interface {
	SetMeta(ctx context.Context, meta *model.PresetMeta) error
	GetMeta(ctx context.Context, code string) (*model.PresetMeta, error)
	Delete(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)
}

type presetCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresetCache creates a new preset cache
func NewPresetCache(client *redis.Client) PresetCache {
	return &presetCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *presetCache) key(code string) string {
	return fmt.Sprintf("preset:%s", code)
}

func (c *presetCache) SetMeta(ctx context.Context, meta *model.PresetMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(meta.Code), data, c.ttl).Err()
}

// GetMeta returns nil, nil on a miss
func (c *presetCache) GetMeta(ctx context.Context, code string) (*model.PresetMeta, error) {
	data, err := c.client.Get(ctx, c.key(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.PresetMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *presetCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}

func (c *presetCache) Exists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(code)).Result()
	return n > 0, err
}
