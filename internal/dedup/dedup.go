package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduplicator suppresses repeat alerts for the same NAV date within a TTL
// window. Backed by Redis so restarts of the daemon do not re-alert.
type Deduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection. ttl bounds how long a
// recorded key suppresses further alerts; zero means forever.
func New(redisURL, password string, ttl time.Duration) (*Deduplicator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Deduplicator{rdb: rdb, ttl: ttl}, nil
}

func (d *Deduplicator) Close() error {
	return d.rdb.Close()
}

// AlreadySent reports whether key was recorded within the TTL window.
// Fails open: when Redis is unreachable the alert goes out rather than
// being silently dropped.
func (d *Deduplicator) AlreadySent(ctx context.Context, key string) bool {
	exists, err := d.rdb.Exists(ctx, key).Result()
	return err == nil && exists > 0
}

// Record marks key as sent.
func (d *Deduplicator) Record(ctx context.Context, key string) {
	d.rdb.Set(ctx, key, "1", d.ttl)
}

// Clear removes a key so the next matching alert fires again.
func (d *Deduplicator) Clear(ctx context.Context, key string) {
	d.rdb.Del(ctx, key)
}
