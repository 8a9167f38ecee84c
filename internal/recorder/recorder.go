package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"affiliate/internal/outbox"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Channel carries every recorded link for the analytics consumers
	Channel = "links:recorded"

	keyPrefix  = "linkcache"
	defaultTTL = 24 * time.Hour
)

// Recorder caches link snapshots for the redirect edge and announces them on Channel
type Recorder struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *zap.Logger
}

func New(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) *Recorder {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Recorder{rdb: rdb, ttl: ttl, log: log}
}

// Connect accepts either a redis:// URL or a bare host:port
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CacheKey is the redis key of a link snapshot. Domains are case-insensitive, keys are not.
func CacheKey(domain, key string) string {
	return keyPrefix + ":" + strings.ToLower(domain) + ":" + key
}

// RecordLink writes the snapshot and publishes it in one MULTI/EXEC
func (r *Recorder) RecordLink(ctx context.Context, p outbox.LinkRecordPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode link snapshot: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, CacheKey(p.Domain, p.Key), raw, r.ttl)
	pipe.Publish(ctx, Channel, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("failed to record link",
			zap.String("link_id", p.LinkID),
			zap.String("key", CacheKey(p.Domain, p.Key)),
			zap.Error(err))
		return fmt.Errorf("record link %s: %w", p.LinkID, err)
	}

	r.log.Debug("link recorded", zap.String("link_id", p.LinkID), zap.String("channel", Channel))
	return nil
}
