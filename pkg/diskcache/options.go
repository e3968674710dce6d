package diskcache

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/calvinalkan/diskcache/pkg/fs"
	"github.com/calvinalkan/diskcache/pkg/units"
)

// Defaults applied by [Open] to zero-valued [Options] fields.
const (
	DefaultTableName   = "cache"
	DefaultFileName    = "data.db"
	DefaultMaxTables   = 1
	DefaultLockTimeout = 2 * time.Second
)

var (
	// DefaultMaxMapSize bounds the engine file.
	DefaultMaxMapSize = units.Megabytes(int64(200))

	// DefaultValueBufferSize is the capacity of the value and char buffers.
	DefaultValueBufferSize = units.Megabytes(4)
)

// MaxKeySize is the longest encoded key the engine accepts, and the key
// buffer capacity.
const MaxKeySize = bolt.MaxKeySize

// maxValueBufferSize caps ValueBufferSize at the engine's value limit.
const maxValueBufferSize = bolt.MaxValueSize

// Options configure [Open].
//
// Zero values are replaced with defaults, see [DefaultOptions].
type Options struct {
	// Dir holds the engine file. Created recursively if missing. Required.
	Dir string

	// FileName is the engine file name inside Dir.
	FileName string

	// MaxMapSize is the upper bound on the engine file size in bytes. Writes
	// that would grow the file past it fail with [ErrPutFailed].
	MaxMapSize int64

	// MaxTables is the ceiling on named tables in the engine file.
	MaxTables int

	// TableName is the single table the cache reads and writes.
	TableName string

	// ValueBufferSize is the capacity in bytes of the value buffer and the
	// decode buffer. Values longer than this fail with [ErrValueTooLarge].
	ValueBufferSize int

	// LockTimeout bounds how long Open waits for the engine file lock held
	// by another process.
	LockTimeout time.Duration

	// FS is used to create Dir. Defaults to [fs.NewReal].
	FS fs.FS
}

// DefaultOptions returns the options [Open] uses for unset fields.
func DefaultOptions() Options {
	return Options{
		FileName:        DefaultFileName,
		MaxMapSize:      DefaultMaxMapSize,
		MaxTables:       DefaultMaxTables,
		TableName:       DefaultTableName,
		ValueBufferSize: DefaultValueBufferSize,
		LockTimeout:     DefaultLockTimeout,
		FS:              fs.NewReal(),
	}
}

// withDefaults fills zero-valued fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.FileName == "" {
		o.FileName = def.FileName
	}

	if o.MaxMapSize == 0 {
		o.MaxMapSize = def.MaxMapSize
	}

	if o.MaxTables == 0 {
		o.MaxTables = def.MaxTables
	}

	if o.TableName == "" {
		o.TableName = def.TableName
	}

	if o.ValueBufferSize == 0 {
		o.ValueBufferSize = def.ValueBufferSize
	}

	if o.LockTimeout == 0 {
		o.LockTimeout = def.LockTimeout
	}

	if o.FS == nil {
		o.FS = def.FS
	}

	return o
}

func (o Options) validate() error {
	if o.Dir == "" {
		return fmt.Errorf("dir is required: %w", ErrInvalidInput)
	}

	if o.MaxMapSize < 0 {
		return fmt.Errorf("max_map_size must be > 0, got %d: %w", o.MaxMapSize, ErrInvalidInput)
	}

	if o.MaxTables < 0 {
		return fmt.Errorf("max_tables must be >= 1, got %d: %w", o.MaxTables, ErrInvalidInput)
	}

	if o.ValueBufferSize < 0 || o.ValueBufferSize > maxValueBufferSize {
		return fmt.Errorf("value_buffer_size must be in 1..%d, got %d: %w",
			maxValueBufferSize, o.ValueBufferSize, ErrInvalidInput)
	}

	if o.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must be >= 0, got %s: %w", o.LockTimeout, ErrInvalidInput)
	}

	return nil
}
