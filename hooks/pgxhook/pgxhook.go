// Package pgxhook implements a lifecycle.CheckpointHook that closes and
// reopens a pgxpool.Pool across a SnapStart checkpoint/restore transition,
// so no live TCP connection is captured in the snapshot (spec.md §4.7
// item 1). Grounded on the teacher's pgx pool construction in
// internal/dbaccess.
package pgxhook

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Hook owns a *pgxpool.Pool that is swapped out at BeforeCheckpoint and
// rebuilt at AfterRestore. Callers read the live pool through Pool, which
// is safe to call concurrently with a checkpoint/restore transition.
type Hook struct {
	mu     sync.RWMutex
	pool   *pgxpool.Pool
	connStr string
}

// New opens the initial pool against connStr.
func New(ctx context.Context, connStr string) (*Hook, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	return &Hook{pool: pool, connStr: connStr}, nil
}

// Pool returns the current pool. It blocks only for the instant a
// checkpoint/restore swap holds the write lock.
func (h *Hook) Pool() *pgxpool.Pool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pool
}

// BeforeCheckpoint closes the pool so no open socket crosses the
// snapshot.
func (h *Hook) BeforeCheckpoint(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
	return nil
}

// AfterRestore reopens the pool against the same connection string.
func (h *Hook) AfterRestore(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	pool, err := pgxpool.New(ctx, h.connStr)
	if err != nil {
		return fmt.Errorf("reopen pgx pool after restore: %w", err)
	}
	h.pool = pool
	return nil
}
