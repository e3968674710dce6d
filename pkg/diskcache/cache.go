package diskcache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const dirPerms = 0o755

const filePerms = 0o600

// Cache is a disk-backed string key-value cache.
//
// A Cache owns the engine handle, the single table and the [BufferPool].
// It is not safe for concurrent use, see the package documentation.
type Cache struct {
	mu     sync.Mutex // protects closed
	closed bool

	db    *bolt.DB
	table *table
	pool  *BufferPool
	opts  Options
	path  string
	stats counters
}

// table is the handle to the cache's named bucket.
type table struct {
	name   []byte
	closed atomic.Bool
}

// bucket resolves the table inside tx.
func (t *table) bucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}

	b := tx.Bucket(t.name)
	if b == nil {
		return nil, fmt.Errorf("table %q: %w", t.name, berrors.ErrBucketNotFound)
	}

	return b, nil
}

func (t *table) close() { t.closed.Store(true) }

// Open creates the cache directory if needed, opens the engine file and the
// cache table, and allocates the scratch buffers.
func Open(opts Options) (*Cache, error) {
	opts = opts.withDefaults()

	err := opts.validate()
	if err != nil {
		return nil, err
	}

	err = opts.FS.MkdirAll(opts.Dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := filepath.Join(opts.Dir, opts.FileName)

	db, err := bolt.Open(path, filePerms, &bolt.Options{
		Timeout: opts.LockTimeout,
		MaxSize: int(opts.MaxMapSize),
	})
	if err != nil {
		return nil, fmt.Errorf("open engine %s: %w", path, err)
	}

	tbl := &table{name: []byte(opts.TableName)}

	err = db.Update(func(tx *bolt.Tx) error {
		return createTable(tx, tbl.name, opts.MaxTables)
	})
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Cache{
		db:    db,
		table: tbl,
		pool:  NewBufferPool(MaxKeySize, opts.ValueBufferSize),
		opts:  opts,
		path:  path,
	}, nil
}

// createTable creates the named bucket unless it exists, refusing to exceed
// maxTables buckets in the file.
func createTable(tx *bolt.Tx, name []byte, maxTables int) error {
	if tx.Bucket(name) != nil {
		return nil
	}

	count := 0

	err := tx.ForEach(func([]byte, *bolt.Bucket) error {
		count++

		return nil
	})
	if err != nil {
		return err
	}

	if count >= maxTables {
		return fmt.Errorf("%d of %d tables in use, %q not among them: %w",
			count, maxTables, name, ErrTooManyTables)
	}

	_, err = tx.CreateBucket(name)
	if err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	return nil
}

// Close flushes the engine to durable storage, closes the table and then
// closes the engine. The order is required: the engine must not be closed
// while the table is open, nor the table before the flush.
//
// Close is idempotent; calls after the first return nil. Close waits for
// outstanding transactions to finish. Once Close has started, operations on
// those transactions fail with [ErrClosed], and their holders must still
// roll them back for Close to return.
func (c *Cache) Close() error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	syncErr := c.db.Sync()
	if syncErr != nil {
		syncErr = fmt.Errorf("sync engine: %w", syncErr)
	}

	c.table.close()

	closeErr := c.db.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close engine: %w", closeErr)
	}

	return errors.Join(syncErr, closeErr)
}

// Path returns the engine file path.
func (c *Cache) Path() string { return c.path }

// Options returns the options the cache was opened with, defaults applied.
func (c *Cache) Options() Options { return c.opts }

// Buffers returns the cache's buffer pool.
func (c *Cache) Buffers() *BufferPool { return c.pool }

func (c *Cache) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return nil
}
