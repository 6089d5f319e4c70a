package wire

// SizeClass identifies one of the three fixed buffer capacities. No other
// capacities exist; buffers are created once at pool initialization and are
// never grown, shrunk, or destroyed.
type SizeClass int

const (
	Small  SizeClass = 256
	Medium SizeClass = 4096
	Large  SizeClass = 65536
)

// classOf returns the smallest size class able to hold size bytes, or 0 if
// size exceeds every class.
func classOf(size int) SizeClass {
	switch {
	case size <= int(Small):
		return Small
	case size <= int(Medium):
		return Medium
	case size <= int(Large):
		return Large
	default:
		return 0
	}
}

// Buffer is a contiguous byte region of fixed capacity leased from a
// BufferPool. It carries logical write/read cursors so the same backing
// array can be filled, flipped to a readable view, and drained without
// reallocating. A Buffer is held by exactly one owner at a time; it is
// never shared concurrently.
type Buffer struct {
	class SizeClass
	buf   []byte

	wpos  int // bytes written so far
	roff  int // bytes already consumed from the readable view
	limit int // end of the readable view (set by Flip)
}

func newBuffer(class SizeClass) *Buffer {
	return &Buffer{class: class, buf: make([]byte, class)}
}

// Class reports the size class this buffer belongs to.
func (b *Buffer) Class() SizeClass { return b.class }

// Cap reports the fixed capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.buf) }

// reset clears cursors so the buffer looks freshly acquired. It does not
// zero the backing array; callers never read past their own writes.
func (b *Buffer) reset() {
	b.wpos = 0
	b.roff = 0
	b.limit = 0
}

// Write appends p to the buffer's write cursor. It panics if p would
// overflow the fixed capacity — that is a programmer error in the encoder,
// which must size-check before acquiring.
func (b *Buffer) Write(p []byte) {
	n := copy(b.buf[b.wpos:], p)
	if n != len(p) {
		panic("wire: buffer write overflows fixed capacity")
	}
	b.wpos += n
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) {
	b.buf[b.wpos] = c
	b.wpos++
}

// Flip marks the buffer's written region as the readable region and resets
// the read cursor to the start. Call once writing is complete and before
// handing the buffer to the write engine.
func (b *Buffer) Flip() {
	b.limit = b.wpos
	b.roff = 0
}

// Readable returns the unread slice of the readable region.
func (b *Buffer) Readable() []byte {
	return b.buf[b.roff:b.limit]
}

// Advance marks n bytes of the readable region as consumed.
func (b *Buffer) Advance(n int) {
	b.roff += n
	if b.roff > b.limit {
		panic("wire: buffer advance past limit")
	}
}

// Remaining reports how many readable bytes are left unconsumed.
func (b *Buffer) Remaining() int {
	return b.limit - b.roff
}

// Raw exposes the full backing array for read-loop fills: the read loop
// reads into it from offset 0 and copies out the n bytes the read returned.
func (b *Buffer) Raw() []byte { return b.buf }

// SetLimit sets the readable limit directly, to n bytes already placed in
// Raw(), and resets the read cursor.
func (b *Buffer) SetLimit(n int) {
	b.limit = n
	b.roff = 0
}
