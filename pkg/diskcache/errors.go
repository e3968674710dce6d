package diskcache

import "errors"

// Sentinel errors returned by diskcache operations.
//
// Errors that carry a cause wrap both the sentinel and the cause, so callers
// should use [errors.Is]:
//
//	if errors.Is(err, diskcache.ErrKeyExists) {
//	    // keep the existing value
//	}
var (
	// ErrBufferBusy indicates a scratch buffer or codec was requested while
	// already leased.
	//
	// This is a programming error (re-entrant or concurrent use of one Cache).
	ErrBufferBusy = errors.New("diskcache: buffer busy")

	// ErrEncode indicates text could not be encoded into a buffer, either
	// because it is not valid UTF-8 or because the buffer is too small.
	ErrEncode = errors.New("diskcache: encode failed")

	// ErrDecode indicates stored bytes could not be decoded into text.
	ErrDecode = errors.New("diskcache: decode failed")

	// ErrKeyTooLong indicates the encoded key exceeds the engine's maximum
	// key size.
	//
	// Recovery: shorten the key.
	ErrKeyTooLong = errors.New("diskcache: key too long")

	// ErrValueTooLarge indicates the encoded value exceeds the value buffer
	// capacity ([Options.ValueBufferSize]).
	//
	// Recovery: shorten the value or reopen with a larger buffer.
	ErrValueTooLarge = errors.New("diskcache: value too large")

	// ErrPutFailed indicates the engine rejected a write, for example because
	// the map is full ([Options.MaxMapSize] reached).
	//
	// Recovery: enlarge MaxMapSize or free space, then retry.
	ErrPutFailed = errors.New("diskcache: put failed")

	// ErrKeyExists indicates a [NoOverwrite] write found the key already set.
	// The stored value is unchanged.
	ErrKeyExists = errors.New("diskcache: key already exists")

	// ErrClosed indicates the [Cache] has already been closed.
	ErrClosed = errors.New("diskcache: closed")

	// ErrInvalidInput indicates invalid options or arguments.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("diskcache: invalid input")

	// ErrTooManyTables indicates the engine file already holds
	// [Options.MaxTables] tables and none of them is [Options.TableName].
	//
	// Recovery: point Dir at a different directory.
	ErrTooManyTables = errors.New("diskcache: too many tables")

	// ErrTxReadOnly indicates a write was attempted in a read transaction.
	ErrTxReadOnly = errors.New("diskcache: transaction is read-only")

	// ErrTxDone indicates the transaction was already committed or rolled back.
	ErrTxDone = errors.New("diskcache: transaction done")
)
