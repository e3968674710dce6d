// Package fs provides the filesystem operations diskcache and the kvcache CLI
// depend on, behind an interface so tests can substitute failures.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [Real]: production implementation using the [os] package
//
// Example usage:
//
//	fsys := fs.NewReal()
//	if err := fsys.MkdirAll(".data/kvcache", 0o755); err != nil {
//	    return err
//	}
//
//	free, err := fsys.FreeSpace(".data/kvcache")
package fs

import (
	"os"
)

// FS defines filesystem operations for reading, writing, and managing files.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename so readers never observe a partial file.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// FreeSpace returns the number of bytes available to an unprivileged
	// user on the filesystem containing path.
	FreeSpace(path string) (uint64, error)
}
