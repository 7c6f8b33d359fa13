package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "courses:index", "[]", time.Minute))

	value, err := c.Get(ctx, "courses:index")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "courses:index")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Increment(ctx, "rate:1.2.3.4")
		}()
	}
	wg.Wait()

	value, err := c.Get(ctx, "rate:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "50", value)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type row struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	require.NoError(t, SetJSON(ctx, c, "k", []row{{ID: 1, Name: "Go"}}, 0))

	var got []row
	require.NoError(t, GetJSON(ctx, c, "k", &got))
	assert.Equal(t, []row{{ID: 1, Name: "Go"}}, got)

	assert.ErrorIs(t, GetJSON(ctx, c, "missing", &got), ErrMiss)

	n, err := c.Exists(ctx, "k", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, c.Delete(ctx, "k"))
	n, _ = c.Exists(ctx, "k")
	assert.Zero(t, n)
}
