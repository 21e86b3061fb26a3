package store

// pendingWrite stores a serialized store write for replay after the broker
// connection comes back.
type pendingWrite struct {
	topic    string
	payload  []byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that holds writes while disconnected.
// Not safe for concurrent use — caller must synchronize.
type ringBuffer struct {
	buf      []pendingWrite
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any write was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]pendingWrite, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(w pendingWrite) (dropped bool) {
	if r.count == r.capacity {
		first := !r.overflow
		r.overflow = true
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = w
		r.head = (r.head + 1) % r.capacity
		// count stays at capacity
		return first
	}
	r.buf[r.head] = w
	r.head = (r.head + 1) % r.capacity
	r.count++
	return false
}

func (r *ringBuffer) drainAll() []pendingWrite {
	if r.count == 0 {
		return nil
	}

	result := make([]pendingWrite, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
