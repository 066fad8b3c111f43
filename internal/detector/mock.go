package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/gesture"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a scripted sequence of samples, one per Detect call.
type MockDetector struct {
	samples []gesture.Sample
	index   int
	loop    bool
	err     error
	calls   int
	mu      sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetSamples sets the samples returned by successive Detect calls.
// Once exhausted, Detect reports misses unless loop is set.
func (m *MockDetector) SetSamples(samples []gesture.Sample, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = samples
	m.index = 0
	m.loop = loop
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted sample or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return Detection{}, m.err
	}

	if m.index >= len(m.samples) {
		if !m.loop || len(m.samples) == 0 {
			return Detection{Center: gesture.Miss()}, nil
		}
		m.index = 0
	}

	s := m.samples[m.index]
	m.index++
	return Detection{Center: s, CircleX: s.X, CircleY: s.Y, Radius: 25}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// CirclePath returns n samples at regular angular steps around a circle,
// one full turn every steps samples.
func CirclePath(n, steps int, cx, cy, radius float64) []gesture.Sample {
	samples := make([]gesture.Sample, n)
	for i := range samples {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		samples[i] = gesture.At(cx+radius*math.Cos(theta), cy+radius*math.Sin(theta))
	}
	return samples
}

// ZigzagPath returns n samples moving step units along x per sample while
// alternating offset units above and below the axis at height y.
func ZigzagPath(n int, y, step, offset float64) []gesture.Sample {
	samples := make([]gesture.Sample, n)
	for i := range samples {
		dy := offset
		if i%2 == 1 {
			dy = -offset
		}
		samples[i] = gesture.At(float64(i)*step, y+dy)
	}
	return samples
}

// StillPath returns n samples fixed at (x, y).
func StillPath(n int, x, y float64) []gesture.Sample {
	samples := make([]gesture.Sample, n)
	for i := range samples {
		samples[i] = gesture.At(x, y)
	}
	return samples
}
