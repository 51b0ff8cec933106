package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedupe remembers which listings were already posted
type Dedupe interface {
	// Claim reports whether id was unclaimed and claims it
	Claim(ctx context.Context, id string) (bool, error)
	// Release forgets a claim so the listing is retried on the next run
	Release(ctx context.Context, id string) error
}

// RedisDedupe keeps claims in redis with an expiry
type RedisDedupe struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisDedupe creates a dedupe over an existing client
func NewRedisDedupe(rdb *redis.Client, ttl time.Duration) *RedisDedupe {
	return &RedisDedupe{rdb: rdb, ttl: ttl, prefix: "jobgraph:ingest:job:"}
}

// DialRedisDedupe connects to url (redis://...) and checks the connection
func DialRedisDedupe(ctx context.Context, url string, ttl time.Duration) (*RedisDedupe, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return NewRedisDedupe(rdb, ttl), nil
}

func (d *RedisDedupe) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.prefix+id, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", id, err)
	}
	return ok, nil
}

func (d *RedisDedupe) Release(ctx context.Context, id string) error {
	if err := d.rdb.Del(ctx, d.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to release job %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying client
func (d *RedisDedupe) Close() error {
	return d.rdb.Close()
}

// noDedupe claims everything; used when no redis is configured
type noDedupe struct{}

func (noDedupe) Claim(context.Context, string) (bool, error) { return true, nil }
func (noDedupe) Release(context.Context, string) error { return nil }
