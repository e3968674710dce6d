package diskcache

// Buffer is a fixed-capacity scratch byte buffer with a write position and a
// read limit.
//
// A buffer is filled between [Buffer.Clear] and [Buffer.Flip]; after Flip,
// [Buffer.Bytes] returns the written extent. The backing array never grows:
// writers receive [Buffer.Free] and report progress with [Buffer.Advance].
type Buffer struct {
	data  []byte
	pos   int
	limit int
}

func newBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity), limit: capacity}
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Clear prepares the buffer for writing from the start.
func (b *Buffer) Clear() {
	b.pos = 0
	b.limit = len(b.data)
}

// Flip makes the written extent readable.
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
}

// Position returns the current position: bytes written before Flip,
// bytes consumed after.
func (b *Buffer) Position() int { return b.pos }

// Free returns the writable region between position and limit.
func (b *Buffer) Free() []byte { return b.data[b.pos:b.limit] }

// Advance moves the position forward by n written bytes.
func (b *Buffer) Advance(n int) {
	if n < 0 || b.pos+n > b.limit {
		panic("diskcache: buffer advance out of range")
	}

	b.pos += n
}

// Bytes returns the readable region between position and limit.
//
// The slice aliases the buffer and is only valid until the next Clear.
func (b *Buffer) Bytes() []byte { return b.data[b.pos:b.limit] }

// String copies the readable region into a new string.
func (b *Buffer) String() string { return string(b.Bytes()) }
