package fs

import (
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection. Unset fields default to 0.0.
type ChaosConfig struct {
	// ReadFailRate controls how often FS.ReadFile fails entirely. The error
	// is an open-phase failure (EACCES, EMFILE, ENFILE, ENOTDIR) or a
	// read-phase failure (EIO).
	ReadFailRate float64

	// PartialReadRate controls how often FS.ReadFile returns a truncated
	// prefix of the file along with EIO.
	PartialReadRate float64

	// WriteFailRate controls how often FS.WriteFileAtomic fails. The target
	// file is left untouched, as a failed atomic write would leave it.
	// Returns EIO, ENOSPC, EDQUOT, or EROFS.
	WriteFailRate float64

	// StatFailRate controls how often FS.Stat and FS.Exists fail.
	// Returns EACCES or EIO.
	StatFailRate float64

	// MkdirAllFailRate controls how often FS.MkdirAll fails.
	// Returns EACCES, EIO, ENOSPC, EDQUOT, EROFS, or ENOTDIR.
	MkdirAllFailRate float64

	// FreeSpaceFailRate controls how often FS.FreeSpace fails.
	// Returns EACCES or EIO.
	FreeSpaceFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	ReadFails      int64
	PartialReads   int64
	WriteFails     int64
	StatFails      int64
	MkdirAllFails  int64
	FreeSpaceFails int64
}

// chaosError marks an error as intentionally injected by [Chaos].
//
// It wraps an [*fs.PathError] carrying a real [syscall.Errno], so errors.Is
// and helpers like os.IsPermission keep working.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
// Returns false if err is nil.
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures for testing.
//
// Chaos never injects ENOENT: any os.IsNotExist result originates from the
// wrapped [FS]. Each call independently decides whether to inject.
//
// Use [Chaos.SetMode] to switch injection off and [Chaos.Stats] to inspect
// how many faults were injected.
type Chaos struct {
	fs     FS
	rng    *rand.Rand
	config ChaosConfig
	mode   atomic.Uint32

	rngMu sync.Mutex

	readFails      atomic.Int64
	partialReads   atomic.Int64
	writeFails     atomic.Int64
	statFails      atomic.Int64
	mkdirAllFails  atomic.Int64
	freeSpaceFails atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying is nil.
func NewChaos(underlying FS, seed int64, config *ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	return &Chaos{
		fs:     underlying,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
		config: *config,
	}
}

// SetMode updates [Chaos] behavior. Safe to call concurrently with
// filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		ReadFails:      c.readFails.Load(),
		PartialReads:   c.partialReads.Load(),
		WriteFails:     c.writeFails.Load(),
		StatFails:      c.statFails.Load(),
		MkdirAllFails:  c.mkdirAllFails.Load(),
		FreeSpaceFails: c.freeSpaceFails.Load(),
	}
}

// TotalFaults returns the total number of injected faults.
func (c *Chaos) TotalFaults() int64 {
	s := c.Stats()

	return s.ReadFails + s.PartialReads + s.WriteFails + s.StatFails + s.MkdirAllFails + s.FreeSpaceFails
}

// ReadFile reads a file's contents with fault injection.
func (c *Chaos) ReadFile(path string) ([]byte, error) {
	mode := c.getMode()

	if c.should(mode, c.config.ReadFailRate) {
		c.readFails.Add(1)

		op, errno := c.pickReadFileError()

		return nil, pathError(op, path, errno)
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Like os.ReadFile returning the bytes read so far after a later read fails.
	if c.should(mode, c.config.PartialReadRate) && len(data) > 1 {
		c.partialReads.Add(1)
		cutoff := c.randIntn(len(data)-1) + 1

		return data[:cutoff], pathError("read", path, syscall.EIO)
	}

	return data, nil
}

// WriteFileAtomic writes data atomically with fault injection.
func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := c.introduceChaos(path, faultWrite)
	if err != nil {
		return err
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

// MkdirAll creates a directory and parents with fault injection.
func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	err := c.introduceChaos(path, faultMkdirAll)
	if err != nil {
		return err
	}

	return c.fs.MkdirAll(path, perm)
}

// Stat returns file info with fault injection.
func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	err := c.introduceChaos(path, faultStat)
	if err != nil {
		return nil, err
	}

	return c.fs.Stat(path)
}

// Exists checks file existence with fault injection.
func (c *Chaos) Exists(path string) (bool, error) {
	err := c.introduceChaos(path, faultStat)
	if err != nil {
		return false, err
	}

	return c.fs.Exists(path)
}

// FreeSpace reports free bytes with fault injection.
func (c *Chaos) FreeSpace(path string) (uint64, error) {
	err := c.introduceChaos(path, faultFreeSpace)
	if err != nil {
		return 0, err
	}

	return c.fs.FreeSpace(path)
}

func (c *Chaos) getMode() ChaosMode {
	v := c.mode.Load()
	if v > uint32(ChaosModeNoOp) {
		return ChaosModeActive
	}

	return ChaosMode(v)
}

// faultKind identifies a type of fault that can be injected.
// The string value is used as the operation name in error messages.
type faultKind string

const (
	faultWrite     faultKind = "writeatomic"
	faultStat      faultKind = "stat"
	faultMkdirAll  faultKind = "mkdirall"
	faultFreeSpace faultKind = "statfs"
)

// introduceChaos checks if a fault should be injected for the given operation.
// Returns a non-nil error if a fault was injected, nil otherwise.
func (c *Chaos) introduceChaos(path string, kind faultKind) error {
	mode := c.getMode()
	if mode != ChaosModeActive {
		return nil
	}

	var (
		rate    float64
		counter *atomic.Int64
		errnos  []syscall.Errno
	)

	switch kind {
	case faultWrite:
		rate = c.config.WriteFailRate
		counter = &c.writeFails
		errnos = []syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS}

	case faultStat:
		rate = c.config.StatFailRate
		counter = &c.statFails
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO}

	case faultMkdirAll:
		rate = c.config.MkdirAllFailRate
		counter = &c.mkdirAllFails
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS, syscall.ENOTDIR}

	case faultFreeSpace:
		rate = c.config.FreeSpaceFailRate
		counter = &c.freeSpaceFails
		errnos = []syscall.Errno{syscall.EACCES, syscall.EIO}

	default:
		panic("unknown fault kind: " + string(kind))
	}

	if !c.should(mode, rate) {
		return nil
	}

	counter.Add(1)

	return pathError(string(kind), path, errnos[c.randIntn(len(errnos))])
}

// should returns true with the given probability when chaos is injecting.
func (c *Chaos) should(mode ChaosMode, rate float64) bool {
	if mode != ChaosModeActive {
		return false
	}

	return c.randFloat() < rate
}

// randFloat returns a random float64 in [0.0, 1.0) (thread-safe).
func (c *Chaos) randFloat() float64 {
	c.rngMu.Lock()
	result := c.rng.Float64()
	c.rngMu.Unlock()

	return result
}

// randIntn returns a random int in [0, n) (thread-safe).
func (c *Chaos) randIntn(n int) int {
	c.rngMu.Lock()
	result := c.rng.IntN(n)
	c.rngMu.Unlock()

	return result
}

// pickReadFileError returns an injected error consistent with os.ReadFile:
// the failure can be either an open-time error or a later read-time error.
func (c *Chaos) pickReadFileError() (string, syscall.Errno) {
	if c.randFloat() < 0.5 {
		open := []syscall.Errno{syscall.EACCES, syscall.EMFILE, syscall.ENFILE, syscall.ENOTDIR}

		return "open", open[c.randIntn(len(open))]
	}

	return "read", syscall.EIO
}

// pathError creates an injected [*fs.PathError] wrapped in [chaosError].
func pathError(op, path string, errno syscall.Errno) error {
	return &chaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

var _ FS = (*Chaos)(nil)
