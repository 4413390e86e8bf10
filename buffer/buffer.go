// Package buffer implements a reference-counted byte region that
// supports zero-copy child views, mirroring ipcaster's original
// Buffer/BufferBase design (shared_ptr-backed sub-buffers) with Go's
// GC doing the retention instead of atomic refcounts: a child keeps
// its parent reachable for as long as the child itself is reachable.
package buffer

// Buffer is a byte region with a capacity and a valid-data size. The
// root Buffer owns the backing array; a child Buffer created with
// MakeChild shares the parent's array and holds a reference to the
// parent so it is never collected while the child is alive.
type Buffer struct {
	data   []byte
	size   int
	parent *Buffer
}

// New allocates a root buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// MakeChild returns a new Buffer that views data[offset:offset+capacity]
// of b, with size bytes of that window considered valid. offset+capacity
// must not exceed b.Capacity().
func (b *Buffer) MakeChild(offset, capacity, size int) *Buffer {
	if offset+capacity > len(b.data) {
		panic("buffer: child window exceeds parent capacity")
	}
	return &Buffer{
		data:   b.data[offset : offset+capacity : offset+capacity],
		size:   size,
		parent: b,
	}
}

// Data returns the full capacity-sized backing slice.
func (b *Buffer) Data() []byte { return b.data }

// Bytes returns the valid-data prefix of the buffer (length Size()).
func (b *Buffer) Bytes() []byte { return b.data[:b.size] }

// Size returns the amount of valid data in the buffer.
func (b *Buffer) Size() int { return b.size }

// SetSize sets the amount of valid data in the buffer.
func (b *Buffer) SetSize(size int) {
	if size > len(b.data) {
		panic("buffer: size exceeds capacity")
	}
	b.size = size
}

// Capacity returns the allocated size of the buffer.
func (b *Buffer) Capacity() int { return len(b.data) }
