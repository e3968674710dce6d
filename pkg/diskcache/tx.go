package diskcache

import (
	"bytes"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// arenaChunkSize is the size of the chunks a write transaction copies put
// values into.
const arenaChunkSize = 64 << 10

// Tx is a read or write transaction on a [Cache].
//
// A Tx must be finished with [Tx.Commit] or [Tx.Rollback]. It is not safe for
// concurrent use, and a goroutine may hold at most one write transaction.
type Tx struct {
	cache *Cache
	btx   *bolt.Tx
	done  bool

	// bbolt keeps a reference to put values until the transaction ends, so
	// values are copied out of the shared value buffer into the arena.
	arena []byte
}

// BeginWrite starts a write transaction. It blocks while another write
// transaction is open.
func (c *Cache) BeginWrite() (*Tx, error) { return c.begin(true) }

// BeginRead starts a read-only transaction.
func (c *Cache) BeginRead() (*Tx, error) { return c.begin(false) }

func (c *Cache) begin(writable bool) (*Tx, error) {
	err := c.checkOpen()
	if err != nil {
		return nil, err
	}

	btx, err := c.db.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &Tx{cache: c, btx: btx}, nil
}

// Writable reports whether tx is a write transaction.
func (tx *Tx) Writable() bool { return tx.btx.Writable() }

// Commit makes the writes of tx visible to new transactions and durable.
// Committing a read transaction releases it.
//
// If the engine file would grow past [Options.MaxMapSize], Commit fails with
// an error wrapping [ErrPutFailed] and nothing from tx is visible.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}

	tx.done = true
	tx.arena = nil

	if !tx.btx.Writable() {
		return tx.btx.Rollback()
	}

	err := tx.btx.Commit()
	if err != nil {
		if errors.Is(err, berrors.ErrMaxSizeReached) {
			return fmt.Errorf("%w: %w", ErrPutFailed, err)
		}

		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Rollback discards tx. It is a no-op after Commit or a previous Rollback.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}

	tx.done = true
	tx.arena = nil

	return tx.btx.Rollback()
}

// Update runs fn in a write transaction and commits it if fn returns nil.
// Otherwise, or if fn panics, the transaction is rolled back.
func (c *Cache) Update(fn func(*Tx) error) error {
	tx, err := c.BeginWrite()
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// View runs fn in a read transaction.
func (c *Cache) View(fn func(*Tx) error) error {
	tx, err := c.BeginRead()
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// check validates that tx can be used on c, and for writes that it is writable.
func (c *Cache) check(tx *Tx, write bool) error {
	err := c.checkOpen()
	if err != nil {
		return err
	}

	if tx == nil || tx.cache != c {
		return fmt.Errorf("transaction belongs to another cache: %w", ErrInvalidInput)
	}

	if tx.done {
		return ErrTxDone
	}

	if write && !tx.btx.Writable() {
		return ErrTxReadOnly
	}

	return nil
}

// hold copies b into memory owned by tx for the rest of the transaction.
func (tx *Tx) hold(b []byte) []byte {
	if len(b) > arenaChunkSize/4 {
		return bytes.Clone(b)
	}

	if tx.arena == nil || cap(tx.arena)-len(tx.arena) < len(b) {
		tx.arena = make([]byte, 0, arenaChunkSize)
	}

	start := len(tx.arena)
	tx.arena = append(tx.arena, b...)

	return tx.arena[start:len(tx.arena):len(tx.arena)]
}
