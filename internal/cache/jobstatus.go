package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utasoy/market-reconciler/internal/config"
	"github.com/utasoy/market-reconciler/internal/job"
)

const (
	jobStatusKeyPrefix = "job:status"
	defaultJobStatusTTL = 24 * time.Hour
)

// JobStatusMirror is the redis write-behind side of job.Store: every
// Update/Complete/Fail also lands here, so any API replica can answer
// /jobs/<id> without sharing the job store's local disk.
type JobStatusMirror interface {
	job.Mirror
	Get(ctx context.Context, jobID string) (job.Status, bool, error)
}

type redisJobStatusMirror struct {
	client *redis.Client
	ttl    time.Duration
}

type noopJobStatusMirror struct{}

// NewJobStatusMirror returns a redis-backed mirror when cfg.Enabled,
// otherwise a no-op so callers never need a nil check.
func NewJobStatusMirror(cfg config.CacheConfig) (JobStatusMirror, error) {
	if !cfg.Enabled {
		return &noopJobStatusMirror{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisJobStatusMirror{client: client, ttl: defaultJobStatusTTL}, nil
}

// Set implements job.Mirror. Context is backgrounded since Store.write
// doesn't carry one through to the mirror call.
func (m *redisJobStatusMirror) Set(jobID string, status job.Status) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode job status: %w", err)
	}
	return m.client.Set(ctx, jobStatusKey(jobID), payload, m.ttl).Err()
}

func (m *redisJobStatusMirror) Get(ctx context.Context, jobID string) (job.Status, bool, error) {
	payload, err := m.client.Get(ctx, jobStatusKey(jobID)).Bytes()
	if err == redis.Nil {
		return job.Status{}, false, nil
	}
	if err != nil {
		return job.Status{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var st job.Status
	if err := json.Unmarshal(payload, &st); err != nil {
		return job.Status{}, false, fmt.Errorf("decode job status: %w", err)
	}
	return st, true, nil
}

func (n *noopJobStatusMirror) Set(jobID string, status job.Status) error { return nil }

func (n *noopJobStatusMirror) Get(ctx context.Context, jobID string) (job.Status, bool, error) {
	return job.Status{}, false, nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func jobStatusKey(jobID string) string {
	return fmt.Sprintf("%s:%s", jobStatusKeyPrefix, jobID)
}
