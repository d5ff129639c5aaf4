package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/repositories"
)

const dirtySetKey = "posts:to_sync"

// ViewCounter keeps per-post view counters in Redis and periodically flushes
// them to the posts collection. Counting is eventually consistent: a view
// recorded while a sweep is flushing the same post may miss one flush and is
// picked up by the next.
type ViewCounter struct {
	client *redis.Client
	posts  repositories.PostRepository
	logger *zap.Logger
}

func NewViewCounter(client *redis.Client, posts repositories.PostRepository, logger *zap.Logger) *ViewCounter {
	return &ViewCounter{client: client, posts: posts, logger: logger}
}

func viewKey(postID string) string {
	return fmt.Sprintf("post:%s:views", postID)
}

// RecordView bumps the post's counter and marks the post dirty. Both writes
// are set-idempotent so concurrent views cannot corrupt the pending set.
func (v *ViewCounter) RecordView(ctx context.Context, postID primitive.ObjectID) error {
	id := postID.Hex()
	if err := v.client.Incr(ctx, viewKey(id)).Err(); err != nil {
		return fmt.Errorf("increment view counter: %w", err)
	}
	if err := v.client.SAdd(ctx, dirtySetKey, id).Err(); err != nil {
		return fmt.Errorf("mark post dirty: %w", err)
	}
	return nil
}

// ViewCount reads the cached counter; a missing key counts as zero.
func (v *ViewCounter) ViewCount(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	count, err := v.client.Get(ctx, viewKey(postID.Hex())).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Sync drains the dirty set: for each pending post the cached counter is
// written to the store, then the post is removed from the set.
func (v *ViewCounter) Sync(ctx context.Context) {
	pending, err := v.client.SMembers(ctx, dirtySetKey).Result()
	if err != nil {
		v.logger.Error("read view sync set", zap.Error(err))
		return
	}

	for _, id := range pending {
		postID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			v.client.SRem(ctx, dirtySetKey, id)
			continue
		}

		count, err := v.ViewCount(ctx, postID)
		if err != nil {
			v.logger.Error("read view counter", zap.String("post_id", id), zap.Error(err))
			continue
		}

		if err := v.posts.SetViewCount(ctx, postID, count); err != nil {
			v.logger.Error("flush view counter", zap.String("post_id", id), zap.Error(err))
			continue
		}

		if err := v.client.SRem(ctx, dirtySetKey, id).Err(); err != nil {
			v.logger.Error("remove post from sync set", zap.String("post_id", id), zap.Error(err))
		}
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done.
func (v *ViewCounter) Start(ctx context.Context, interval time.Duration) {
	v.Sync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			v.Sync(ctx)
		case <-ctx.Done():
			return
		}
	}
}
