// Package capture provides video capture and display using GoCV (OpenCV).
package capture

import (
	"errors"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS   = 30
	DefaultWidth = 1000
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned when a video file has no more frames.
	ErrEndOfStream = errors.New("end of video stream")
)

// Source selects where frames come from. A non-empty VideoPath takes
// precedence over DeviceID.
type Source struct {
	DeviceID  int    `json:"device_id"`
	VideoPath string `json:"video_path"`
	// Width is the width frames are resized to, keeping aspect ratio.
	// Zero or less keeps the native size.
	Width int `json:"width"`
}

// DefaultSource returns the first camera device at the default width.
func DefaultSource() Source {
	return Source{DeviceID: 0, Width: DefaultWidth}
}

// IsFile reports whether the source is a video file.
func (s Source) IsFile() bool {
	return s.VideoPath != ""
}

// Camera defines the interface for frame capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a device or file using GoCV.
type cameraImpl struct {
	source  Source
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a new Camera for the given source.
func NewCamera(source Source) Camera {
	return &cameraImpl{
		source:  source,
		fps:     DefaultFPS,
		running: false,
		capture: nil,
	}
}

// Open opens the device or video file for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var device interface{} = c.source.DeviceID
	if c.source.IsFile() {
		device = c.source.VideoPath
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return err
	}

	if !c.source.IsFile() {
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame, resized to the configured width.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if c.source.IsFile() {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if err := ResizeToWidth(&mat, c.source.Width); err != nil {
		mat.Close()
		return nil, err
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil && !c.source.IsFile() {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// ResizeToWidth scales frame in place to the given width, keeping its
// aspect ratio. Widths of zero or less leave the frame unchanged.
func ResizeToWidth(frame *gocv.Mat, width int) error {
	if width <= 0 || frame.Empty() || frame.Cols() == width {
		return nil
	}

	height := frame.Rows() * width / frame.Cols()
	if height < 1 {
		return errors.New("resize would produce an empty frame")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(*frame, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)
	resized.CopyTo(frame)
	return nil
}
