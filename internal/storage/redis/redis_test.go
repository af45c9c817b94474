package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter(t *testing.T) (*LimitCounter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	repo := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(repo.Close)

	c := repo.LimitCounter("signin")
	c.Config(10, time.Minute)

	return c, mr
}

func TestLimitCounter_IncrementAndGet(t *testing.T) {
	c, _ := newCounter(t)

	prev := time.Unix(1_700_000_000, 0).Truncate(time.Minute)
	curr := prev.Add(time.Minute)

	require.NoError(t, c.Increment("10.0.0.1", prev))
	require.NoError(t, c.IncrementBy("10.0.0.1", curr, 3))
	require.NoError(t, c.Increment("10.0.0.1", curr))

	currCount, prevCount, err := c.Get("10.0.0.1", curr, prev)
	require.NoError(t, err)
	assert.Equal(t, 4, currCount)
	assert.Equal(t, 1, prevCount)

	currCount, prevCount, err = c.Get("10.0.0.2", curr, prev)
	require.NoError(t, err)
	assert.Zero(t, currCount)
	assert.Zero(t, prevCount)
}

func TestLimitCounter_KeysExpire(t *testing.T) {
	c, mr := newCounter(t)

	window := time.Now().Truncate(time.Minute)
	require.NoError(t, c.Increment("10.0.0.1", window))

	key := c.key("10.0.0.1", window)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 3*time.Minute, mr.TTL(key))

	mr.FastForward(4 * time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestLimitCounter_Unavailable(t *testing.T) {
	c, mr := newCounter(t)
	mr.Close()

	assert.Error(t, c.Increment("10.0.0.1", time.Now()))

	_, _, err := c.Get("10.0.0.1", time.Now(), time.Now().Add(-time.Minute))
	assert.Error(t, err)
}
