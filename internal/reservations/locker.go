package reservations

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// Locker serializes submissions that compete for the same capacity. Keys are
// always acquired in sorted order so competing baskets cannot deadlock.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// MutexLocker is the in-process implementation, suitable for a single API
// instance and for tests. Mutexes are created lazily per key and never freed;
// the key space is bounded by the live target population.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMutexLocker builds an in-process keyed locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: map[string]*sync.Mutex{}}
}

func (l *MutexLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	ordered := sortedUnique(keys)
	acquired := make([]*sync.Mutex, 0, len(ordered))

	for _, key := range ordered {
		l.mu.Lock()
		m, ok := l.locks[key]
		if !ok {
			m = &sync.Mutex{}
			l.locks[key] = m
		}
		l.mu.Unlock()

		m.Lock()
		acquired = append(acquired, m)
	}

	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
	return release, nil
}

// AdvisoryLocker serializes across instances with Postgres session advisory
// locks held on a pinned connection. Lock keys hash to int64 advisory ids.
type AdvisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker builds a Postgres advisory locker.
func NewAdvisoryLocker(db *sql.DB) (*AdvisoryLocker, error) {
	if db == nil {
		return nil, fmt.Errorf("sql db required")
	}
	return &AdvisoryLocker{db: db}, nil
}

func (l *AdvisoryLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("pin connection: %w", err)
	}

	ordered := sortedUnique(keys)
	held := make([]int64, 0, len(ordered))
	for _, key := range ordered {
		id := advisoryID(key)
		if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
			releaseAdvisory(conn, held)
			return nil, fmt.Errorf("advisory lock %q: %w", key, err)
		}
		held = append(held, id)
	}

	release := func() {
		releaseAdvisory(conn, held)
	}
	return release, nil
}

func releaseAdvisory(conn *sql.Conn, ids []int64) {
	for i := len(ids) - 1; i >= 0; i-- {
		// background context: unlock must run even when the request is cancelled
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", ids[i])
	}
	_ = conn.Close()
}

func advisoryID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
