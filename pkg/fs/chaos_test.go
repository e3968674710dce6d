package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/calvinalkan/diskcache/pkg/fs"
)

func Test_Chaos_Injects_Marked_Errors_When_Rate_Is_One(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaos := fs.NewChaos(fs.NewReal(), 1, &fs.ChaosConfig{
		ReadFailRate:      1,
		WriteFailRate:     1,
		StatFailRate:      1,
		MkdirAllFailRate:  1,
		FreeSpaceFailRate: 1,
	})

	_, err := chaos.ReadFile(path)
	assertInjected(t, "ReadFile", err)

	err = chaos.WriteFileAtomic(path, []byte("changed"), 0o600)
	assertInjected(t, "WriteFileAtomic", err)

	_, err = chaos.Stat(path)
	assertInjected(t, "Stat", err)

	_, err = chaos.Exists(path)
	assertInjected(t, "Exists", err)

	err = chaos.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	assertInjected(t, "MkdirAll", err)

	_, err = chaos.FreeSpace(dir)
	assertInjected(t, "FreeSpace", err)

	got, want := chaos.Stats(), fs.ChaosStats{ReadFails: 1, WriteFails: 1, StatFails: 2, MkdirAllFails: 1, FreeSpaceFails: 1}
	if got != want {
		t.Fatalf("stats=%+v, want=%+v", got, want)
	}

	if chaos.TotalFaults() != 6 {
		t.Fatalf("total=%d, want=6", chaos.TotalFaults())
	}

	// A failed atomic write leaves the file untouched.
	content, err := os.ReadFile(path)
	if err != nil || string(content) != "hello" {
		t.Fatalf("content=%q err=%v, want hello", content, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "sub")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("sub dir should not exist, err=%v", err)
	}
}

func Test_Chaos_Passes_Through_When_NoOp_Mode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	chaos := fs.NewChaos(fs.NewReal(), 1, &fs.ChaosConfig{
		ReadFailRate:     1,
		PartialReadRate:  1,
		WriteFailRate:    1,
		MkdirAllFailRate: 1,
	})
	chaos.SetMode(fs.ChaosModeNoOp)

	if err := chaos.WriteFileAtomic(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := chaos.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("ReadFile=%q err=%v", data, err)
	}

	if err := chaos.MkdirAll(filepath.Join(dir, "a", "b"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if chaos.TotalFaults() != 0 {
		t.Fatalf("faults=%d, want 0", chaos.TotalFaults())
	}
}

func Test_Chaos_Returns_Prefix_When_Partial_Read(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("0123456789"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaos := fs.NewChaos(fs.NewReal(), 7, &fs.ChaosConfig{PartialReadRate: 1})

	data, err := chaos.ReadFile(path)
	assertInjected(t, "ReadFile", err)

	if !errors.Is(err, syscall.EIO) {
		t.Fatalf("err=%v, want EIO", err)
	}

	if len(data) == 0 || len(data) >= 10 || string(data) != "0123456789"[:len(data)] {
		t.Fatalf("data=%q, want a strict prefix", data)
	}
}

func Test_Chaos_Never_Injects_NotExist_When_Path_Missing(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 3, &fs.ChaosConfig{})

	_, err := chaos.ReadFile(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) || fs.IsChaosErr(err) {
		t.Fatalf("err=%v, want real ErrNotExist", err)
	}
}

func assertInjected(t *testing.T, op string, err error) {
	t.Helper()

	if err == nil {
		t.Fatalf("%s: expected injected error", op)
	}

	if !fs.IsChaosErr(err) {
		t.Fatalf("%s: err=%v is not a chaos error", op, err)
	}

	var pe *os.PathError
	if !errors.As(err, &pe) {
		t.Fatalf("%s: err=%v does not unwrap to *PathError", op, err)
	}
}
