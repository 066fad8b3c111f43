package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back frames for testing. When the frames run out it
// behaves like a finished video file and returns ErrEndOfStream.
type MockCamera struct {
	frames  []*gocv.Mat
	blank   int
	rows    int
	cols    int
	index   int
	reads   int
	loop    bool
	mu      sync.Mutex
	running bool
}

// NewMockCamera plays back the given frames. Frames are cloned on read.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

// NewBlankCamera produces count black frames of the given size. A count of
// zero or less produces frames forever.
func NewBlankCamera(count, rows, cols int) *MockCamera {
	return &MockCamera{
		blank: count,
		rows:  rows,
		cols:  cols,
		loop:  count <= 0,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if c.rows > 0 && c.cols > 0 {
		if c.blank > 0 && c.index >= c.blank {
			return nil, ErrEndOfStream
		}
		c.index++
		c.reads++
		frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), c.rows, c.cols, gocv.MatTypeCV8UC3)
		return &frame, nil
	}

	if len(c.frames) == 0 {
		return nil, ErrEndOfStream
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns how many frames have been handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
