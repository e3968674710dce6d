// Package diskcache provides a disk-backed string key-value cache on top of
// bbolt, a memory-mapped transactional key-value engine.
//
// Keys and values are UTF-8 text. Every operation encodes and decodes through
// a small set of fixed-capacity scratch buffers owned by the cache, so
// steady-state reads and writes do not allocate per call beyond the returned
// string.
//
// # Basic Usage
//
//	c, err := diskcache.Open(diskcache.Options{Dir: ".data/kvcache"})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	err = c.Set("greeting", "hello", diskcache.Overwrite)
//	value, found, err := c.Get("greeting")
//	err = c.Delete("greeting")
//
// # Transactions
//
// Set, Get and Delete each run in their own transaction. To batch, open one
// and use the *Tx variants. The caller owns the transaction and must commit
// or roll it back:
//
//	err := c.Update(func(tx *diskcache.Tx) error {
//	    for i := range 1000 {
//	        k := fmt.Sprintf("key-%d", i)
//	        if err := c.SetTx(tx, k, "v", diskcache.Overwrite); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
//
// # Concurrency
//
// The engine allows one write transaction and many read transactions. The
// scratch buffers are single-lease: a second concurrent use of the same
// buffer fails with [ErrBufferBusy] instead of waiting. Drive a Cache from
// one goroutine at a time or guard it with a mutex. A second [Open] of the
// same file waits on the engine's file lock for [Options.LockTimeout].
//
// # Error Handling
//
// Input errors ([ErrKeyTooLong], [ErrValueTooLarge], [ErrInvalidInput]) are
// not transient. [ErrKeyExists] is the expected outcome of a NoOverwrite
// write to an existing key. [ErrPutFailed] means the engine refused the
// write. Engine I/O errors are returned unmodified.
package diskcache
