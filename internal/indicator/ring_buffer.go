package indicator

// RingBuffer keeps the last N values pushed. Index 0 is the newest value.
type RingBuffer[T any] struct {
	data   []T
	front  int
	length int
}

// NewRingBuffer creates a ring buffer holding at most size values (minimum 1).
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}

	return &RingBuffer[T]{data: make([]T, size)}
}

// Push adds a value, evicting the oldest when full.
func (r *RingBuffer[T]) Push(v T) {
	r.front = (r.front + 1) % len(r.data)
	r.data[r.front] = v

	if r.length < len(r.data) {
		r.length++
	}
}

// Get returns the value pushed k pushes ago. ok is false outside the retained window.
func (r *RingBuffer[T]) Get(k int) (T, bool) {
	var zero T
	if k < 0 || k >= r.length {
		return zero, false
	}

	i := (r.front - k + len(r.data)) % len(r.data)

	return r.data[i], true
}

// Len returns how many values are retained.
func (r *RingBuffer[T]) Len() int {
	return r.length
}

// Cap returns the window size.
func (r *RingBuffer[T]) Cap() int {
	return len(r.data)
}

// Values returns the retained values oldest first.
func (r *RingBuffer[T]) Values() []T {
	out := make([]T, 0, r.length)
	for k := r.length - 1; k >= 0; k-- {
		v, _ := r.Get(k)
		out = append(out, v)
	}

	return out
}
