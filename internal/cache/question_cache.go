package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scaledrill/internal/model"
)

// QuestionCache holds the one question currently posed to a session
type QuestionCache interface {
	// NextKey returns a fresh question key for the session, e.g. "q4"
	NextKey(ctx context.Context, sessionID string) (string, error)
	SetCurrent(ctx context.Context, sessionID string, q *model.IssuedQuestion) error
	GetCurrent(ctx context.Context, sessionID string) (*model.IssuedQuestion, error)
	ClearCurrent(ctx context.Context, sessionID string) error
	// Forget drops the current question and the key counter of an ended session
	Forget(ctx context.Context, sessionID string) error
}

type questionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuestionCache creates a new question cache
func NewQuestionCache(client *redis.Client, ttl time.Duration) QuestionCache {
	return &questionCache{
		client: client,
		ttl:    ttl,
	}
}

func currentKey(sessionID string) string {
	return fmt.Sprintf("drill:%s:current", sessionID)
}

func counterKey(sessionID string) string {
	return fmt.Sprintf("drill:%s:seq", sessionID)
}

func (c *questionCache) NextKey(ctx context.Context, sessionID string) (string, error) {
	key := counterKey(sessionID)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("q%d", incr.Val()), nil
}

// SetCurrent overwrites whatever question was posed before
func (c *questionCache) SetCurrent(ctx context.Context, sessionID string, q *model.IssuedQuestion) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, currentKey(sessionID), data, c.ttl).Err()
}

func (c *questionCache) GetCurrent(ctx context.Context, sessionID string) (*model.IssuedQuestion, error) {
	data, err := c.client.Get(ctx, currentKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q model.IssuedQuestion
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *questionCache) ClearCurrent(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, currentKey(sessionID)).Err()
}

func (c *questionCache) Forget(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, currentKey(sessionID), counterKey(sessionID)).Err()
}
