package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Searches(t *testing.T) {
	c := NewController(Config{MaxConcurrentSearches: 2})

	require.NoError(t, c.AcquireSearch(context.Background()))
	require.NoError(t, c.AcquireSearch(context.Background()))
	assert.Equal(t, int64(2), c.ActiveSearches())

	// Third slot is not available.
	assert.False(t, c.TryAcquireSearch())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireSearch(ctx), context.DeadlineExceeded)

	c.ReleaseSearch()
	assert.Equal(t, int64(1), c.ActiveSearches())
	assert.True(t, c.TryAcquireSearch())
}

func TestController_Defaults(t *testing.T) {
	c := NewController(Config{})
	cfg := c.Config()
	assert.Equal(t, int64(1), cfg.MaxConcurrentSearches)
	assert.Equal(t, 1, cfg.Burst)
}

func TestController_QueryRate(t *testing.T) {
	c := NewController(Config{MaxConcurrentSearches: 10, QueriesPerSecond: 1, Burst: 1})

	assert.True(t, c.TryAcquireSearch())
	c.ReleaseSearch()

	// The single token is spent, so a second query is rejected.
	assert.False(t, c.TryAcquireSearch())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireSearch(ctx))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireSearch(context.Background()))
	assert.True(t, c.TryAcquireSearch())
	c.ReleaseSearch()
	assert.Equal(t, int64(0), c.ActiveSearches())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	payload := bytes.Repeat([]byte("cakes"), 1000)

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	r := NewRateLimitedReader(context.Background(), &buf, c)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRateLimitedIOCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewRateLimitedWriter(ctx, io.Discard, c)
	_, err := w.Write([]byte("too much"))
	assert.Error(t, err)
}
