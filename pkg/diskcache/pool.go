package diskcache

import (
	"fmt"
	"sync/atomic"
)

// LeaseState is the lease state of one [BufferPool] slot.
type LeaseState uint32

const (
	// Free means the slot is in the pool and can be leased.
	Free LeaseState = iota
	// Leased means one caller holds the slot exclusively.
	Leased
)

func (s LeaseState) String() string {
	switch s {
	case Free:
		return "free"
	case Leased:
		return "leased"
	default:
		return fmt.Sprintf("LeaseState(%d)", uint32(s))
	}
}

// Slot names a [BufferPool] slot.
type Slot int

const (
	SlotKey Slot = iota
	SlotValue
	SlotChars
	SlotEncoder
	SlotDecoder
)

func (s Slot) String() string {
	switch s {
	case SlotKey:
		return "key buffer"
	case SlotValue:
		return "value buffer"
	case SlotChars:
		return "char buffer"
	case SlotEncoder:
		return "encoder"
	case SlotDecoder:
		return "decoder"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// slot holds one leasable resource.
type slot[T any] struct {
	id    Slot
	state atomic.Uint32
	v     T
	reset func(T) // nil for slots that reset on use
}

// lease runs fn with exclusive access to s.v. The Free→Leased transition is a
// single compare-and-swap; a slot that is already leased fails immediately.
// The slot is released on every exit path, including a panic in fn.
func lease[T any](s *slot[T], fn func(T) error) error {
	if !s.state.CompareAndSwap(uint32(Free), uint32(Leased)) {
		return fmt.Errorf("%s: %w", s.id, ErrBufferBusy)
	}
	defer s.state.Store(uint32(Free))

	if s.reset != nil {
		s.reset(s.v)
	}

	return fn(s.v)
}

// BufferPool owns the scratch buffers and codecs a [Cache] encodes and decodes
// through. Each of the five slots is leased independently; leasing one never
// blocks another.
type BufferPool struct {
	key     slot[*Buffer]
	value   slot[*Buffer]
	chars   slot[*Buffer]
	encoder slot[*Encoder]
	decoder slot[*Decoder]
}

// NewBufferPool allocates a pool whose key buffer holds keyCap bytes and whose
// value and char buffers hold valueCap bytes. All slots start [Free].
func NewBufferPool(keyCap, valueCap int) *BufferPool {
	clearBuf := func(b *Buffer) { b.Clear() }

	// Codecs reset themselves at the start of Encode/Decode.
	return &BufferPool{
		key:     slot[*Buffer]{id: SlotKey, v: newBuffer(keyCap), reset: clearBuf},
		value:   slot[*Buffer]{id: SlotValue, v: newBuffer(valueCap), reset: clearBuf},
		chars:   slot[*Buffer]{id: SlotChars, v: newBuffer(valueCap), reset: clearBuf},
		encoder: slot[*Encoder]{id: SlotEncoder, v: newEncoder()},
		decoder: slot[*Decoder]{id: SlotDecoder, v: newDecoder()},
	}
}

// WithKey leases the key buffer, cleared, for the duration of fn.
func (p *BufferPool) WithKey(fn func(*Buffer) error) error { return lease(&p.key, fn) }

// WithValue leases the value buffer, cleared, for the duration of fn.
func (p *BufferPool) WithValue(fn func(*Buffer) error) error { return lease(&p.value, fn) }

// WithChars leases the char (decode target) buffer, cleared, for the duration of fn.
func (p *BufferPool) WithChars(fn func(*Buffer) error) error { return lease(&p.chars, fn) }

// WithEncoder leases the encoder for the duration of fn.
func (p *BufferPool) WithEncoder(fn func(*Encoder) error) error { return lease(&p.encoder, fn) }

// WithDecoder leases the decoder for the duration of fn.
func (p *BufferPool) WithDecoder(fn func(*Decoder) error) error { return lease(&p.decoder, fn) }

// KeyCap returns the key buffer capacity.
func (p *BufferPool) KeyCap() int { return p.key.v.Cap() }

// ValueCap returns the value buffer capacity.
func (p *BufferPool) ValueCap() int { return p.value.v.Cap() }

// State reports the lease state of a slot.
func (p *BufferPool) State(s Slot) LeaseState {
	switch s {
	case SlotKey:
		return LeaseState(p.key.state.Load())
	case SlotValue:
		return LeaseState(p.value.state.Load())
	case SlotChars:
		return LeaseState(p.chars.state.Load())
	case SlotEncoder:
		return LeaseState(p.encoder.state.Load())
	case SlotDecoder:
		return LeaseState(p.decoder.state.Load())
	default:
		panic(fmt.Sprintf("diskcache: unknown slot %d", int(s)))
	}
}

// encodeKey leases the encoder and key buffer, encodes key, flips the buffer
// and runs fn with the encoded bytes.
func (p *BufferPool) encodeKey(key string, fn func([]byte) error) error {
	return p.WithKey(func(kb *Buffer) error {
		err := p.encodeInto(key, kb)
		if err != nil {
			return err
		}

		return fn(kb.Bytes())
	})
}

// encodeInto leases the encoder, encodes text into b and flips b.
func (p *BufferPool) encodeInto(text string, b *Buffer) error {
	err := p.WithEncoder(func(enc *Encoder) error {
		return enc.Encode(text, b)
	})
	if err != nil {
		return err
	}

	b.Flip()

	return nil
}

// decode leases the char buffer and decoder and decodes raw into a string.
func (p *BufferPool) decode(raw []byte) (string, error) {
	var out string

	err := p.WithChars(func(cb *Buffer) error {
		return p.WithDecoder(func(dec *Decoder) error {
			s, err := dec.Decode(raw, cb)
			out = s

			return err
		})
	})

	return out, err
}
