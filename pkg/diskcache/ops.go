package diskcache

import (
	"bytes"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// PutFlags control how [Cache.Set] treats an existing key.
type PutFlags uint8

const (
	// Overwrite replaces an existing value.
	Overwrite PutFlags = 0

	// NoOverwrite rejects the write with [ErrKeyExists] if the key is set.
	NoOverwrite PutFlags = 1 << 0
)

// Set stores value under key in its own write transaction and commits it.
//
// A commit failure, such as the engine file reaching [Options.MaxMapSize],
// is reported as [ErrPutFailed] wrapping the engine error.
func (c *Cache) Set(key, value string, flags PutFlags) error {
	err := c.checkSet(key, value)
	if err != nil {
		return err
	}

	tx, err := c.BeginWrite()
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	err = c.SetTx(tx, key, value, flags)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil && !errors.Is(err, ErrPutFailed) {
		return fmt.Errorf("%w: %w", ErrPutFailed, err)
	}

	return err
}

// SetTx stores value under key inside tx. The caller commits tx.
//
// Size limits are checked before any buffer is leased: an empty key fails
// with [ErrInvalidInput], a key longer than [MaxKeySize] with
// [ErrKeyTooLong], and a value longer than [Options.ValueBufferSize] with
// [ErrValueTooLarge].
func (c *Cache) SetTx(tx *Tx, key, value string, flags PutFlags) error {
	err := c.check(tx, true)
	if err != nil {
		return err
	}

	err = c.checkSet(key, value)
	if err != nil {
		return err
	}

	b, err := c.table.bucket(tx.btx)
	if err != nil {
		return err
	}

	err = c.pool.WithValue(func(vb *Buffer) error {
		err := c.pool.encodeInto(value, vb)
		if err != nil {
			return err
		}

		return c.pool.encodeKey(key, func(k []byte) error {
			if flags&NoOverwrite != 0 {
				if _, found := lookup(b, k); found {
					return fmt.Errorf("key %q: %w", key, ErrKeyExists)
				}
			}

			err := b.Put(k, tx.hold(vb.Bytes()))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrPutFailed, err)
			}

			return nil
		})
	})
	if err != nil {
		return err
	}

	c.stats.puts.Add(1)

	return nil
}

// Delete removes key in its own write transaction. Deleting a missing key is
// not an error.
func (c *Cache) Delete(key string) error {
	err := c.checkKey(key)
	if err != nil {
		return err
	}

	return c.Update(func(tx *Tx) error {
		return c.DeleteTx(tx, key)
	})
}

// DeleteTx removes key inside tx. The caller commits tx.
func (c *Cache) DeleteTx(tx *Tx, key string) error {
	err := c.check(tx, true)
	if err != nil {
		return err
	}

	err = c.checkKey(key)
	if err != nil {
		return err
	}

	b, err := c.table.bucket(tx.btx)
	if err != nil {
		return err
	}

	err = c.pool.encodeKey(key, func(k []byte) error {
		err := b.Delete(k)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPutFailed, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	c.stats.deletes.Add(1)

	return nil
}

// Get returns the value stored under key in its own read transaction.
// A missing key returns ("", false, nil).
func (c *Cache) Get(key string) (string, bool, error) {
	tx, err := c.BeginRead()
	if err != nil {
		return "", false, err
	}

	defer func() { _ = tx.Rollback() }()

	return c.GetTx(tx, key)
}

// GetTx returns the value stored under key as seen by tx.
//
// The returned string is a copy and stays valid after tx ends. Keys that
// could never have been stored (empty, or longer than [MaxKeySize]) are
// reported as missing.
func (c *Cache) GetTx(tx *Tx, key string) (string, bool, error) {
	err := c.check(tx, false)
	if err != nil {
		return "", false, err
	}

	if key == "" || len(key) > c.pool.KeyCap() {
		c.stats.misses.Add(1)

		return "", false, nil
	}

	b, err := c.table.bucket(tx.btx)
	if err != nil {
		return "", false, err
	}

	var (
		raw   []byte
		found bool
	)

	err = c.pool.encodeKey(key, func(k []byte) error {
		raw, found = lookup(b, k)

		return nil
	})
	if err != nil {
		return "", false, err
	}

	if !found {
		c.stats.misses.Add(1)

		return "", false, nil
	}

	value, err := c.pool.decode(raw)
	if err != nil {
		return "", false, fmt.Errorf("key %q: %w", key, err)
	}

	c.stats.hits.Add(1)

	return value, true, nil
}

// Len returns the number of keys in the table.
func (c *Cache) Len() (int, error) {
	n := 0

	err := c.View(func(tx *Tx) error {
		b, err := c.table.bucket(tx.btx)
		if err != nil {
			return err
		}

		n = b.Stats().KeyN

		return nil
	})

	return n, err
}

func (c *Cache) checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is empty: %w", ErrInvalidInput)
	}

	if len(key) > c.pool.KeyCap() {
		return fmt.Errorf("key is %d bytes, max %d: %w", len(key), c.pool.KeyCap(), ErrKeyTooLong)
	}

	return nil
}

// checkSet validates sizes up front. A Go string's length is its UTF-8
// encoded length, so no encoding is needed to know it.
func (c *Cache) checkSet(key, value string) error {
	err := c.checkKey(key)
	if err != nil {
		return err
	}

	if len(value) > c.pool.ValueCap() {
		return fmt.Errorf("value is %d bytes, buffer holds %d: %w", len(value), c.pool.ValueCap(), ErrValueTooLarge)
	}

	return nil
}

// lookup finds key in b. Unlike Bucket.Get it distinguishes an empty value
// from a missing key.
func lookup(b *bolt.Bucket, key []byte) ([]byte, bool) {
	k, v := b.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}

	return v, true
}
