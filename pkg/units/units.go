// Package units converts between human byte-size units and byte counts.
//
//	units.Megabytes(200)       // 209715200 (int)
//	units.Megabytes(int64(4))  // 4194304 (int64)
//	units.Parse("200MB")       // 209715200, nil
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Integer is the set of integer types the conversions accept.
type Integer interface {
	~int | ~int32 | ~int64
}

// Byte-size constants.
const (
	KB int64 = 1024
	MB       = 1024 * KB
	GB       = 1024 * MB
)

// Kilobytes returns n kilobytes in bytes.
func Kilobytes[T Integer](n T) T { return 1024 * n }

// Megabytes returns n megabytes in bytes.
func Megabytes[T Integer](n T) T { return 1024 * Kilobytes(n) }

// Gigabytes returns n gigabytes in bytes.
func Gigabytes[T Integer](n T) T { return 1024 * Megabytes(n) }

// ErrInvalidSize is returned by [Parse] for malformed or negative sizes.
var ErrInvalidSize = errors.New("invalid size")

// Parse parses a human size such as "4096", "64KB", "200MB", "1GiB" or "2g".
// Suffixes are case-insensitive and always mean powers of 1024.
func Parse(s string) (int64, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	mult := int64(1)

	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"GIB", GB}, {"MIB", MB}, {"KIB", KB},
		{"GB", GB}, {"MB", MB}, {"KB", KB},
		{"G", GB}, {"M", MB}, {"K", KB},
		{"B", 1},
	} {
		if after, ok := strings.CutSuffix(str, unit.suffix); ok {
			str = strings.TrimSpace(after)
			mult = unit.mult

			break
		}
	}

	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
	}

	if n > 0 && mult > 1 && n > (1<<63-1)/mult {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}

	return n * mult, nil
}

// Format renders n using the largest unit that divides it evenly,
// e.g. 209715200 → "200MB", 1536 → "1536B".
func Format(n int64) string {
	switch {
	case n != 0 && n%GB == 0:
		return strconv.FormatInt(n/GB, 10) + "GB"
	case n != 0 && n%MB == 0:
		return strconv.FormatInt(n/MB, 10) + "MB"
	case n != 0 && n%KB == 0:
		return strconv.FormatInt(n/KB, 10) + "KB"
	default:
		return strconv.FormatInt(n, 10) + "B"
	}
}
