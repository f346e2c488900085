package db

import (
	"sync"
	"time"

	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// WriteQueue buffers fire-and-forget inserts for a single table. It is
// flushed by the gateway when the batch size is reached, on its interval,
// or before any read of the table.
type WriteQueue struct {
	mu            sync.Mutex
	flushMu       sync.Mutex // held by the gateway for the whole flush
	tableName     string
	ops           []typesdb.WriteOp
	lastFlushed   time.Time
	batchSize     int
	flushInterval time.Duration
	full          chan struct{}
}

// NewWriteQueue creates a new write queue for a specific table
func NewWriteQueue(tableName string, batchSize int, flushInterval time.Duration) *WriteQueue {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &WriteQueue{
		tableName:     tableName,
		lastFlushed:   time.Now(),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		full:          make(chan struct{}, 1),
	}
}

// Add queues an operation and reports whether the batch size is reached.
// Reaching it also wakes whoever is waiting on Full.
func (wq *WriteQueue) Add(op typesdb.WriteOp) bool {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	wq.ops = append(wq.ops, op)
	if len(wq.ops) < wq.batchSize {
		return false
	}
	select {
	case wq.full <- struct{}{}:
	default:
	}
	return true
}

// Full fires once the batch size has been reached since the last receive.
func (wq *WriteQueue) Full() <-chan struct{} {
	return wq.full
}

// Len returns the number of queued operations
func (wq *WriteQueue) Len() int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return len(wq.ops)
}

// FlushInterval returns the current flush interval
func (wq *WriteQueue) FlushInterval() time.Duration {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return wq.flushInterval
}

// Flush takes the queued operations when forced, when the batch is full, or
// when the interval has passed. It returns nil when there is nothing to do.
func (wq *WriteQueue) Flush(force bool) *typesdb.Batch {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	if len(wq.ops) == 0 {
		return nil
	}
	due := time.Since(wq.lastFlushed) >= wq.flushInterval
	if !force && !due && len(wq.ops) < wq.batchSize {
		return nil
	}

	ops := wq.ops
	wq.ops = nil
	wq.lastFlushed = time.Now()
	return &typesdb.Batch{Table: wq.tableName, Ops: ops}
}
