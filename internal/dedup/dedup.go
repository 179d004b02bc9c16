// Package dedup answers "has this key been seen in the current window".
// Engagement counters use it to count a view or click once per (tool, IP).
package dedup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Deduper interface {
	// FirstSeen records key and reports whether it was new in the current window.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// Memory is a process-local set cleared wholesale at every epoch boundary.
// It is not shared between instances and is lost on restart, so a
// multi-instance deployment will count one view per instance. Callers that
// check and then increment are not atomic across concurrent requests.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

func (m *Memory) FirstSeen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	return true, nil
}

// Reset starts a new epoch.
func (m *Memory) Reset() {
	m.mu.Lock()
	n := len(m.seen)
	m.seen = make(map[string]struct{})
	m.mu.Unlock()

	zap.L().Debug("dedup epoch reset", zap.Int("dropped", n))
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// Run resets the set every interval until ctx is cancelled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Reset()
		case <-ctx.Done():
			return
		}
	}
}
