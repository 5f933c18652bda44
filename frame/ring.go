package frame

// ring is a fixed-capacity FIFO of bytes. Bytes are appended at the back
// and consumed from the front without moving the stored data.
type ring struct {
	buf  []byte
	head int
	n    int
}

func newRing(capacity int) ring {
	return ring{buf: make([]byte, capacity)}
}

func (r *ring) Len() int  { return r.n }
func (r *ring) Cap() int  { return len(r.buf) }
func (r *ring) Free() int { return len(r.buf) - r.n }

// At returns the i'th byte from the front. i must be less than Len.
func (r *ring) At(i int) byte {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Push appends as much of p as fits and returns the number of bytes stored.
func (r *ring) Push(p []byte) int {
	n := min(len(p), r.Free())
	tail := (r.head + r.n) % len(r.buf)
	for i := 0; i < n; i++ {
		r.buf[tail] = p[i]
		tail++
		if tail == len(r.buf) {
			tail = 0
		}
	}
	r.n += n
	return n
}

// Discard drops up to n bytes from the front.
func (r *ring) Discard(n int) {
	n = min(n, r.n)
	r.n -= n
	if r.n == 0 {
		r.head = 0
		return
	}
	r.head = (r.head + n) % len(r.buf)
}

// Peek copies the first len(dst) bytes into dst without consuming them.
func (r *ring) Peek(dst []byte) int {
	n := min(len(dst), r.n)
	for i := 0; i < n; i++ {
		dst[i] = r.At(i)
	}
	return n
}
