package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
)

// Config controls how the gateway connects.
type Config struct {
	// DSN is duckdb://<path> (empty path is in-memory) or postgres://...
	DSN              string
	MaxAttempts      int
	RetryDelay       time.Duration
	StatementTimeout time.Duration
}

// QueryError carries the statement that failed. Its message is the driver's
// message unchanged.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string { return e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }

type DB struct {
	conn   *sql.DB
	driver string
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc

	ready   chan struct{}
	connErr error

	mu        sync.RWMutex
	wqMap     map[string]*WriteQueue
	listeners sync.WaitGroup
}

// New prepares a gateway without connecting. Statements issued before
// Connect completes block until it does.
func New(cfg Config) *DB {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.StatementTimeout <= 0 {
		cfg.StatementTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DB{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		wqMap:  make(map[string]*WriteQueue),
	}
}

// Open connects with retries and returns the ready gateway.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	db := New(cfg)
	if err := db.Connect(ctx); err != nil {
		db.cancel()
		return nil, err
	}
	return db, nil
}

// Connect tries up to MaxAttempts times, sleeping attempt*RetryDelay between
// tries. Ready is closed whether or not it succeeds.
func (db *DB) Connect(ctx context.Context) error {
	defer close(db.ready)

	driver, source, err := parseDSN(db.cfg.DSN)
	if err != nil {
		db.connErr = apperrors.NewAppError(apperrors.ErrDatabaseConnection, "invalid database dsn", err)
		return db.connErr
	}

	var lastErr error
	for attempt := 1; attempt <= db.cfg.MaxAttempts; attempt++ {
		conn, err := sql.Open(driver, source)
		if err == nil {
			err = conn.PingContext(ctx)
			if err != nil {
				conn.Close()
			}
		}
		if err == nil {
			db.conn = conn
			db.driver = driver
			log.Printf("✅ Connected to %s (attempt %d)", driver, attempt)
			return nil
		}

		lastErr = err
		log.Printf("⚠️  Database connection attempt %d/%d failed: %v", attempt, db.cfg.MaxAttempts, err)
		if attempt == db.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * db.cfg.RetryDelay):
		case <-ctx.Done():
			db.connErr = apperrors.NewAppError(apperrors.ErrDatabaseConnection, "database connection aborted", ctx.Err())
			return db.connErr
		}
	}

	db.connErr = apperrors.NewAppError(apperrors.ErrDatabaseConnection, "database connection failed", lastErr)
	return db.connErr
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "duckdb://"):
		return "duckdb", strings.TrimPrefix(dsn, "duckdb://"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported dsn scheme in %q", dsn)
	}
}

// Ready is closed once Connect has finished.
func (db *DB) Ready() <-chan struct{} {
	return db.ready
}

// WaitReady blocks until Connect has finished and reports its outcome.
func (db *DB) WaitReady(ctx context.Context) error {
	select {
	case <-db.ready:
		return db.connErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Driver returns the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// InitWriteQueue initializes a write queue for a specific table.
func (db *DB) InitWriteQueue(table string, batchSize int, flushInterval time.Duration) {
	wq := NewWriteQueue(table, batchSize, flushInterval)
	db.mu.Lock()
	db.wqMap[table] = wq
	db.mu.Unlock()

	db.listeners.Add(1)
	go db.startQueueListener(wq)
}

func (db *DB) writeQueue(table string) *WriteQueue {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.wqMap[table]
}

// Close flushes every write queue, stops the listeners and closes the pool.
func (db *DB) Close() {
	db.mu.RLock()
	queues := make([]*WriteQueue, 0, len(db.wqMap))
	for _, wq := range db.wqMap {
		queues = append(queues, wq)
	}
	db.mu.RUnlock()

	for _, wq := range queues {
		db.flushWriteQueue(wq, true)
	}

	db.cancel()
	db.listeners.Wait()
	if db.conn != nil {
		db.conn.Close()
	}
}

// Rows releases the statement timeout when closed.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
}

func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.cancel()
	return err
}

// Row is a single-row result. Scan returns sql.ErrNoRows unwrapped.
type Row struct {
	row    *sql.Row
	query  string
	err    error
	cancel context.CancelFunc
}

func (r *Row) Scan(dest ...any) error {
	defer r.cancel()
	if r.err != nil {
		return r.err
	}
	if err := r.row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return &QueryError{Query: r.query, Err: err}
	}
	return nil
}

func (db *DB) stmtContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := db.WaitReady(ctx); err != nil {
		return nil, nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, db.cfg.StatementTimeout)
	return sctx, cancel, nil
}

// Query runs a read query after flushing pending writes for the given table.
func (db *DB) Query(ctx context.Context, table string, query string, params ...any) (*Rows, error) {
	sctx, cancel, err := db.stmtContext(ctx)
	if err != nil {
		return nil, err
	}
	if wq := db.writeQueue(table); wq != nil {
		// reads must see everything queued before them
		db.flushWriteQueue(wq, true)
	}
	rows, err := db.conn.QueryContext(sctx, query, params...)
	if err != nil {
		cancel()
		return nil, &QueryError{Query: query, Err: err}
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

// QueryRow runs a single row query
func (db *DB) QueryRow(ctx context.Context, query string, params ...any) *Row {
	sctx, cancel, err := db.stmtContext(ctx)
	if err != nil {
		return &Row{err: err, cancel: func() {}}
	}
	return &Row{row: db.conn.QueryRowContext(sctx, query, params...), query: query, cancel: cancel}
}

// Exec runs a direct write query and returns the result
func (db *DB) Exec(ctx context.Context, query string, params ...any) (sql.Result, error) {
	sctx, cancel, err := db.stmtContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	res, err := db.conn.ExecContext(sctx, query, params...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return res, nil
}

// Tx is a transaction handed to InTx callbacks.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

func (t *Tx) Query(query string, params ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, params...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return rows, nil
}

func (t *Tx) QueryRow(query string, params ...any) *Row {
	return &Row{row: t.tx.QueryRowContext(t.ctx, query, params...), query: query, cancel: func() {}}
}

func (t *Tx) Exec(query string, params ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(t.ctx, query, params...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return res, nil
}

// InTx runs fn in a transaction, committing when it returns nil.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sctx, cancel, err := db.stmtContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	sqlTx, err := db.conn.BeginTx(sctx, nil)
	if err != nil {
		return &QueryError{Query: "BEGIN", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			sqlTx.Rollback()
		}
	}()

	if err = fn(&Tx{tx: sqlTx, ctx: sctx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return &QueryError{Query: "COMMIT", Err: err}
	}
	return nil
}

// QueueWrite queues an insert for the table's write queue. Tables without a
// queue are written directly.
func (db *DB) QueueWrite(tableName, query string, params ...any) {
	wq := db.writeQueue(tableName)
	if wq == nil {
		if _, err := db.Exec(db.ctx, query, params...); err != nil {
			log.Printf("❌ Direct write to %s failed: %v", tableName, err)
		}
		return
	}
	// full batches are flushed by the table's listener
	wq.Add(typesdb.WriteOp{Query: query, Params: params})
}

// ForceFlushTable writes everything queued for tableName.
func (db *DB) ForceFlushTable(tableName string) {
	if wq := db.writeQueue(tableName); wq != nil {
		db.flushWriteQueue(wq, true)
	}
}

// CreateTable creates a table if it doesn't exist.
func (db *DB) CreateTable(ctx context.Context, tableName string, schema string) error {
	_, err := db.Exec(ctx, "CREATE TABLE IF NOT EXISTS "+tableName+" ("+schema+")")
	return err
}

func (db *DB) flushWriteQueue(wq *WriteQueue, force bool) {
	wq.flushMu.Lock()
	defer wq.flushMu.Unlock()

	batch := wq.Flush(force)
	if batch == nil {
		return
	}
	if err := db.batchExecute(batch); err != nil {
		fmt.Printf("❌ Database batch execution failed for table %s: %v\n", batch.Table, err)
		sampleCount := len(batch.Ops)
		if sampleCount > 3 {
			sampleCount = 3
		}
		for _, op := range batch.Ops[:sampleCount] {
			fmt.Printf("   Query sample: %s\n", strings.TrimSpace(op.Query))
		}
	}
}

// batchExecute writes a batch in a single transaction.
func (db *DB) batchExecute(batch *typesdb.Batch) error {
	if db.conn == nil {
		return fmt.Errorf("database not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), db.cfg.StatementTimeout)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, op := range batch.Ops {
		if _, err := tx.ExecContext(ctx, op.Query, op.Params...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute query for table %s: %w", batch.Table, err)
		}
	}
	return tx.Commit()
}

func (db *DB) startQueueListener(queue *WriteQueue) {
	defer db.listeners.Done()

	ticker := time.NewTicker(queue.FlushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			db.flushWriteQueue(queue, false)
		case <-queue.Full():
			db.flushWriteQueue(queue, false)
		case <-db.ctx.Done():
			return
		}
	}
}
