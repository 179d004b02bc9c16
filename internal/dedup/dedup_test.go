package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"plaiful/internal/database/databasetest"
	"plaiful/internal/dedup"
)

func TestMemory_FirstSeen(t *testing.T) {
	m := dedup.NewMemory()
	ctx := context.Background()

	first, err := m.FirstSeen(ctx, "view:chatgpt:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = m.FirstSeen(ctx, "view:chatgpt:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, first)

	first, err = m.FirstSeen(ctx, "view:chatgpt:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, first)

	m.Reset()
	assert.Equal(t, 0, m.Len())

	first, err = m.FirstSeen(ctx, "view:chatgpt:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMemory_RunResetsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := dedup.NewMemory()
	_, _ = m.FirstSeen(context.Background(), "k")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestStore_FirstSeenWithExpiry(t *testing.T) {
	db := databasetest.New(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := dedup.NewStore(db, time.Hour).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := s.FirstSeen(ctx, "click:midjourney:9.9.9.9")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.FirstSeen(ctx, "click:midjourney:9.9.9.9")
	require.NoError(t, err)
	assert.False(t, first)

	now = now.Add(59 * time.Minute)
	first, err = s.FirstSeen(ctx, "click:midjourney:9.9.9.9")
	require.NoError(t, err)
	assert.False(t, first)

	now = now.Add(time.Minute)
	first, err = s.FirstSeen(ctx, "click:midjourney:9.9.9.9")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestStore_Purge(t *testing.T) {
	db := databasetest.New(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := dedup.NewStore(db, time.Hour).WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, _ = s.FirstSeen(ctx, "a")
	_, _ = s.FirstSeen(ctx, "b")

	now = now.Add(2 * time.Hour)
	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
