package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardTTL = 24 * time.Hour

// OperationGuard provides the idempotency fast-path backed by Redis.
// Key format: op:<idempotency_key>
//
// It is best-effort: a lost key only means the durable lookup on the
// transaction rows does the work instead.
type OperationGuard struct {
	client *redis.Client
}

// NewOperationGuard creates an OperationGuard wrapping the given Redis client.
func NewOperationGuard(client *redis.Client) *OperationGuard {
	return &OperationGuard{client: client}
}

// Acquire claims the operation key. It returns false when the key is already
// held, meaning the same operation was seen before (processed, or in flight).
func (g *OperationGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), "1", guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("guard acquire: %w", err)
	}
	return ok, nil
}

// Release frees the key so a retry of a failed operation is not stalled by
// the fast path.
func (g *OperationGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *OperationGuard) key(key string) string {
	return "op:" + key
}
