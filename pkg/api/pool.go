package api

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerPool manages concurrent request processing with configurable limits.
// It provides separate lanes for evaluation (evaluate, legal moves) and search
// (best move, arena) work, so long searches cannot starve cheap requests.
type WorkerPool struct {
	evalSem      chan struct{} // Semaphore for evaluation requests
	searchSem    chan struct{} // Semaphore for search requests
	queuedEval   int64         // Number of queued evaluation requests
	queuedSearch int64         // Number of queued search requests
	activeEval   int64         // Number of active evaluation requests
	activeSearch int64         // Number of active search requests
	totalEval    int64         // Total evaluation requests processed
	totalSearch  int64         // Total search requests processed
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxEvalWorkers   int // Max concurrent evaluation requests (default: 100)
	MaxSearchWorkers int // Max concurrent searches (default: 4)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxEvalWorkers:   100,
		MaxSearchWorkers: 4,
	}
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	def := DefaultPoolConfig()
	if config.MaxEvalWorkers <= 0 {
		config.MaxEvalWorkers = def.MaxEvalWorkers
	}
	if config.MaxSearchWorkers <= 0 {
		config.MaxSearchWorkers = def.MaxSearchWorkers
	}

	return &WorkerPool{
		evalSem:   make(chan struct{}, config.MaxEvalWorkers),
		searchSem: make(chan struct{}, config.MaxSearchWorkers),
	}
}

func acquire(ctx context.Context, sem chan struct{}, queued, active *int64) error {
	atomic.AddInt64(queued, 1)
	defer atomic.AddInt64(queued, -1)

	select {
	case sem <- struct{}{}:
		atomic.AddInt64(active, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func release(sem chan struct{}, active, total *int64) {
	atomic.AddInt64(active, -1)
	atomic.AddInt64(total, 1)
	<-sem
}

func tryAcquire(sem chan struct{}, active *int64) bool {
	select {
	case sem <- struct{}{}:
		atomic.AddInt64(active, 1)
		return true
	default:
		return false
	}
}

// AcquireEval acquires a slot for an evaluation request.
// Returns an error if the context is cancelled while waiting.
func (p *WorkerPool) AcquireEval(ctx context.Context) error {
	return acquire(ctx, p.evalSem, &p.queuedEval, &p.activeEval)
}

// ReleaseEval releases an evaluation slot.
func (p *WorkerPool) ReleaseEval() {
	release(p.evalSem, &p.activeEval, &p.totalEval)
}

// AcquireSearch acquires a slot for a search request.
// Returns an error if the context is cancelled while waiting.
func (p *WorkerPool) AcquireSearch(ctx context.Context) error {
	return acquire(ctx, p.searchSem, &p.queuedSearch, &p.activeSearch)
}

// ReleaseSearch releases a search slot.
func (p *WorkerPool) ReleaseSearch() {
	release(p.searchSem, &p.activeSearch, &p.totalSearch)
}

// TryAcquireEval tries to acquire an evaluation slot without blocking.
// Returns true if acquired, false if the lane is full.
func (p *WorkerPool) TryAcquireEval() bool {
	return tryAcquire(p.evalSem, &p.activeEval)
}

// TryAcquireSearch tries to acquire a search slot without blocking.
// Returns true if acquired, false if the lane is full.
func (p *WorkerPool) TryAcquireSearch() bool {
	return tryAcquire(p.searchSem, &p.activeSearch)
}

// AcquireSearchWithTimeout tries to acquire a search slot with a timeout.
func (p *WorkerPool) AcquireSearchWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.AcquireSearch(ctx)
}

// PoolStats holds current pool statistics.
type PoolStats struct {
	ActiveEval   int64 `json:"active_eval"`
	ActiveSearch int64 `json:"active_search"`
	QueuedEval   int64 `json:"queued_eval"`
	QueuedSearch int64 `json:"queued_search"`
	TotalEval    int64 `json:"total_eval"`
	TotalSearch  int64 `json:"total_search"`
	MaxEval      int   `json:"max_eval"`
	MaxSearch    int   `json:"max_search"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ActiveEval:   atomic.LoadInt64(&p.activeEval),
		ActiveSearch: atomic.LoadInt64(&p.activeSearch),
		QueuedEval:   atomic.LoadInt64(&p.queuedEval),
		QueuedSearch: atomic.LoadInt64(&p.queuedSearch),
		TotalEval:    atomic.LoadInt64(&p.totalEval),
		TotalSearch:  atomic.LoadInt64(&p.totalSearch),
		MaxEval:      cap(p.evalSem),
		MaxSearch:    cap(p.searchSem),
	}
}
