package diskcache

import (
	"fmt"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Encoder converts text into a [Buffer] as UTF-8.
//
// An Encoder is reused across calls and is reset before each one. It is not
// safe for concurrent use; the [BufferPool] hands it out under a lease.
type Encoder struct {
	t transform.Transformer
}

func newEncoder() *Encoder { return &Encoder{t: &utf8Transformer{}} }

// Encode writes text into the free region of dst. On success the position of
// dst marks the end of the written bytes, ready for [Buffer.Flip].
//
// Invalid UTF-8 or a too-small dst fails with an error wrapping [ErrEncode]
// and the cause ([encoding.ErrInvalidUTF8] or [transform.ErrShortDst]).
func (e *Encoder) Encode(text string, dst *Buffer) error {
	e.t.Reset()

	err := runTransform(e.t, dst, stringBytes(text))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return nil
}

// Decoder converts UTF-8 bytes back into text through a [Buffer].
//
// Like [Encoder] it is reset before each call and must be leased.
type Decoder struct {
	t transform.Transformer
}

func newDecoder() *Decoder { return &Decoder{t: &utf8Transformer{}} }

// Decode transforms src into dst, flips dst and returns its contents as a new
// string. Failures wrap [ErrDecode] and the cause.
func (d *Decoder) Decode(src []byte, dst *Buffer) (string, error) {
	d.t.Reset()

	err := runTransform(d.t, dst, src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	dst.Flip()

	return dst.String(), nil
}

// runTransform runs t over all of src with end of input signaled, then
// flushes t with an empty final call.
func runTransform(t transform.Transformer, dst *Buffer, src []byte) error {
	nDst, nSrc, err := t.Transform(dst.Free(), src, true)
	dst.Advance(nDst)

	if err != nil {
		return err
	}

	if nSrc != len(src) {
		return transform.ErrShortSrc
	}

	nDst, _, err = t.Transform(dst.Free(), nil, true)
	dst.Advance(nDst)

	return err
}

// stringBytes returns the bytes of s without copying. The result must not be
// modified.
func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// utf8Transformer copies src to dst, rejecting anything that is not valid
// UTF-8. It never splits a rune across dst boundaries.
type utf8Transformer struct {
	transform.NopResetter
}

func (*utf8Transformer) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	nDst, nSrc := 0, 0

	var err error

	for nSrc < len(src) {
		size := 1

		if src[nSrc] >= utf8.RuneSelf {
			if !utf8.FullRune(src[nSrc:]) {
				if atEOF {
					err = encoding.ErrInvalidUTF8
				} else {
					err = transform.ErrShortSrc
				}

				break
			}

			r, n := utf8.DecodeRune(src[nSrc:])
			if r == utf8.RuneError && n == 1 {
				err = encoding.ErrInvalidUTF8

				break
			}

			size = n
		}

		if nDst+size > len(dst) {
			err = transform.ErrShortDst

			break
		}

		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}

	return nDst, nSrc, err
}
