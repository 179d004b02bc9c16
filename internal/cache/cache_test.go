package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestMemory_GetSetAndStaleness(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)

	_, _, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v", time.Hour, "ads")

	v, stale, ok := c.Get("k")
	require.True(t, ok)
	assert.False(t, stale)
	assert.Equal(t, "v", v)

	clock.t = clock.t.Add(time.Hour)
	v, stale, ok = c.Get("k")
	require.True(t, ok)
	assert.True(t, stale)
	assert.Equal(t, "v", v)
}

func TestMemory_ReclaimsDeadEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 5000; i++ {
		_, err := Remember(ctx, c, fmt.Sprintf("tools:search:q%d", i), time.Hour, []string{"tools"},
			func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 5000, c.Len())

	clock.t = clock.t.Add(48 * time.Hour)
	_, _, ok := c.Get("tools:search:q0")
	assert.False(t, ok)

	c.Set("fresh", 1, time.Hour, "tools")
	assert.Equal(t, 1, c.Len())

	c.Invalidate("tools")
	assert.Equal(t, 0, c.Len())
}

func TestMemory_StaleWindowEndsAfterOneTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)

	c.Set("k", "v", time.Hour)
	clock.t = clock.t.Add(119 * time.Minute)
	_, stale, ok := c.Get("k")
	require.True(t, ok)
	assert.True(t, stale)

	clock.t = clock.t.Add(time.Minute)
	_, _, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemory_MaxEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now).WithMaxEntries(3)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Hour, "ads")
		clock.t = clock.t.Add(time.Second)
	}
	assert.Equal(t, 3, c.Len())

	v, _, ok := c.Get("k4")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	c.Invalidate("ads")
	assert.Equal(t, 0, c.Len())
}

func TestMemory_InvalidateByTag(t *testing.T) {
	c := NewMemory()
	c.Set("ad:1", 1, time.Hour, "ads")
	c.Set("ad:2", 2, time.Hour, "ads", "home")
	c.Set("tool:1", 3, time.Hour, "tools")

	c.Invalidate("ads")

	_, _, ok := c.Get("ad:1")
	assert.False(t, ok)
	_, _, ok = c.Get("ad:2")
	assert.False(t, ok)
	_, _, ok = c.Get("tool:1")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	// the dropped entry must not linger under its other tag
	c.Set("ad:2", 22, time.Hour)
	c.Invalidate("home")
	v, _, ok := c.Get("ad:2")
	require.True(t, ok)
	assert.Equal(t, 22, v)
}

func TestRemember(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	}

	v, err := Remember(ctx, c, "k", time.Minute, []string{"t"}, load)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = Remember(ctx, c, "k", time.Minute, []string{"t"}, load)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	clock.t = clock.t.Add(2 * time.Minute)
	v, err = Remember(ctx, c, "k", time.Minute, []string{"t"}, load)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	c.Invalidate("t")
	v, err = Remember(ctx, c, "k", time.Minute, []string{"t"}, load)
	require.NoError(t, err)
	assert.Equal(t, 30, v)
}

func TestRemember_ErrorNotCached(t *testing.T) {
	c := NewMemory()
	boom := errors.New("boom")

	_, err := Remember(context.Background(), c, "k", time.Minute, nil, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestRemember_NilCache(t *testing.T) {
	v, err := Remember(context.Background(), nil, "k", time.Minute, nil, func(context.Context) (string, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", v)
}
