// Package ratelimit bounds how many requests the orchestrator has in
// flight against a single external service at once, shared across every
// worker process via Redis so the cap holds cluster-wide, not just
// per-process.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

// Semaphore is a distributed counting semaphore backed by a Redis list
// pre-loaded with `capacity` tokens: Acquire blocks on BLPOP for a token,
// Release pushes one back. Connect-then-ping mirrors the bus's own
// construction pattern.
type Semaphore struct {
	log      *logger.Logger
	rdb      *goredis.Client
	key      string
	capacity int
}

func NewSemaphore(log *logger.Logger, addr, key string, capacity int) (*Semaphore, error) {
	if capacity <= 0 {
		capacity = 1
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := &Semaphore{log: log.With("component", "RateLimitSemaphore", "key", key), rdb: rdb, key: key, capacity: capacity}
	if err := s.seed(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return s, nil
}

// seed fills the token list up to capacity if it is empty, so concurrent
// process restarts don't double-seed tokens beyond capacity.
func (s *Semaphore) seed(ctx context.Context) error {
	n, err := s.rdb.LLen(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("llen %s: %w", s.key, err)
	}
	for i := n; i < int64(s.capacity); i++ {
		if err := s.rdb.RPush(ctx, s.key, "1").Err(); err != nil {
			return fmt.Errorf("seed token %s: %w", s.key, err)
		}
	}
	return nil
}

// Acquire blocks until a token is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	timeout := 0 * time.Second // block indefinitely, bounded by ctx
	res, err := s.rdb.BLPop(ctx, timeout, s.key).Result()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", s.key, err)
	}
	if len(res) < 2 {
		return fmt.Errorf("acquire %s: malformed BLPOP reply", s.key)
	}
	return nil
}

// Release returns a token to the pool. Errors are logged, not propagated:
// a lost token only shrinks effective capacity, it never deadlocks callers.
func (s *Semaphore) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rdb.RPush(ctx, s.key, "1").Err(); err != nil {
		s.log.Warn("release failed", "error", err.Error())
	}
}

func (s *Semaphore) Close() error {
	return s.rdb.Close()
}
