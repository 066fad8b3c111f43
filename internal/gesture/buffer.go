// Package gesture classifies tracked object trajectories as circular or not.
package gesture

// Sample is one tracked position. A sample that is not Present records a
// detection miss for that frame.
type Sample struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Present bool    `json:"present"`
}

// At returns a present sample at (x, y).
func At(x, y float64) Sample {
	return Sample{X: x, Y: y, Present: true}
}

// Miss returns an absent sample.
func Miss() Sample {
	return Sample{}
}

// TrackBuffer is a bounded history of samples. Once full, each push evicts
// the oldest sample.
type TrackBuffer struct {
	data []Sample
	head int // index of the newest sample
	n    int
}

// NewTrackBuffer creates a TrackBuffer holding at most capacity samples.
// Capacities below 1 are treated as 1.
func NewTrackBuffer(capacity int) *TrackBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &TrackBuffer{
		data: make([]Sample, capacity),
		head: capacity - 1,
	}
}

// Push records s as the newest sample.
func (b *TrackBuffer) Push(s Sample) {
	b.head = (b.head + 1) % len(b.data)
	b.data[b.head] = s
	if b.n < len(b.data) {
		b.n++
	}
}

// Snapshot returns a copy of the buffered samples, newest first.
func (b *TrackBuffer) Snapshot() []Sample {
	out := make([]Sample, b.n)
	size := len(b.data)
	for i := 0; i < b.n; i++ {
		out[i] = b.data[(b.head-i+size)%size]
	}
	return out
}

// Len returns the number of buffered samples.
func (b *TrackBuffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *TrackBuffer) Cap() int {
	return len(b.data)
}
