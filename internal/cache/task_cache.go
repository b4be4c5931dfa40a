package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
)

const (
	allTasksKey        = "tasks:all"
	userTasksKeyPrefix = "tasks:user:"
)

// TaskCache keeps task listings in Redis for a short TTL. A cache miss or an
// unreachable Redis is never an error; callers fall back to the store.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaskCache builds a cache around the given client. A nil client disables
// caching entirely.
func NewTaskCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TaskCache {
	return &TaskCache{client: client, ttl: ttl, logger: logger}
}

// GetAll returns the cached all-tasks listing, if present.
func (c *TaskCache) GetAll(ctx context.Context) ([]domain.Task, bool) {
	return c.get(ctx, allTasksKey)
}

// SetAll stores the all-tasks listing.
func (c *TaskCache) SetAll(ctx context.Context, tasks []domain.Task) {
	c.set(ctx, allTasksKey, tasks)
}

// GetForUser returns the cached listing for one assignee, if present.
func (c *TaskCache) GetForUser(ctx context.Context, userID string) ([]domain.Task, bool) {
	return c.get(ctx, userTasksKeyPrefix+userID)
}

// SetForUser stores the listing for one assignee.
func (c *TaskCache) SetForUser(ctx context.Context, userID string, tasks []domain.Task) {
	c.set(ctx, userTasksKeyPrefix+userID, tasks)
}

// Invalidate drops the all-tasks listing and the listings of the given users.
// Called after any task write.
func (c *TaskCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || c.client == nil {
		return
	}
	keys := make([]string, 0, len(userIDs)+1)
	keys = append(keys, allTasksKey)
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, userTasksKeyPrefix+id)
		}
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("task cache invalidate failed", zap.Error(err))
	}
}

func (c *TaskCache) get(ctx context.Context, key string) ([]domain.Task, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("task cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		c.logger.Warn("task cache decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return tasks, true
}

func (c *TaskCache) set(ctx context.Context, key string, tasks []domain.Task) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("task cache write failed", zap.String("key", key), zap.Error(err))
	}
}
