package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

const counterTimeout = time.Second

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// NewWithClient wraps an already configured client.
func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

// LimitCounter returns a rate limit counter whose keys start with prefix.
// Each limiter needs its own counter since the window length is per counter.
func (r *RedisRepo) LimitCounter(prefix string) *LimitCounter {
	return &LimitCounter{
		client: r.client,
		prefix: "httprate:" + prefix + ":",
	}
}

func (r *RedisRepo) Close() {
	r.client.Close()
}

var _ httprate.LimitCounter = (*LimitCounter)(nil)

// LimitCounter stores sliding window counters for httprate in Redis, so limits
// hold across server instances.
type LimitCounter struct {
	client       *redis.Client
	prefix       string
	windowLength time.Duration
}

func (c *LimitCounter) Config(requestLimit int, windowLength time.Duration) {
	c.windowLength = windowLength
}

func (c *LimitCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *LimitCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	const op = "storage.redis.IncrementBy"

	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()

	k := c.key(key, currentWindow)

	pipe := c.client.TxPipeline()
	pipe.IncrBy(ctx, k, int64(amount))
	pipe.Expire(ctx, k, c.windowLength*3)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *LimitCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	const op = "storage.redis.Get"

	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()

	values, err := c.client.MGet(ctx, c.key(key, currentWindow), c.key(key, previousWindow)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	curr, err := counterValue(values[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	prev, err := counterValue(values[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	return curr, prev, nil
}

func (c *LimitCounter) key(key string, window time.Time) string {
	return c.prefix + key + ":" + strconv.FormatInt(window.Unix(), 10)
}

func counterValue(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.Atoi(val)
	}

	return 0, errors.New("unexpected counter value")
}
