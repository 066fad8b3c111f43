// Package detector locates the tracked object in video frames.
package detector

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/gesture"
)

// ErrEmptyFrame is returned when Detect is given a nil or empty frame.
var ErrEmptyFrame = errors.New("empty frame")

// Detection is the result of looking for the object in one frame.
type Detection struct {
	// Center is the blob centroid, or a miss when no blob was found.
	Center gesture.Sample

	// CircleX, CircleY and Radius describe the minimum enclosing circle.
	CircleX float64
	CircleY float64
	Radius  float64
}

// Drawable reports whether the detection was found and its enclosing
// circle is larger than minRadius.
func (d Detection) Drawable(minRadius float64) bool {
	return d.Center.Present && d.Radius > minRadius
}

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns where the object is.
	// A frame without the object yields a Detection whose Center is a miss.
	Detect(frame *gocv.Mat) (Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// HSV is a hue, saturation, value triple on OpenCV's scale (H 0-179).
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Config holds configuration options for color detection.
type Config struct {
	// Lower and Upper bound the object's color.
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`

	// Iterations is the number of erode and dilate passes used to remove
	// small blobs from the mask.
	Iterations int `json:"iterations"`

	// MinRadius is the enclosing radius a blob needs to be drawn.
	MinRadius float64 `json:"min_radius"`
}

// DefaultConfig returns a Config tuned for a green ball.
func DefaultConfig() Config {
	return Config{
		Lower:      HSV{H: 38, S: 90, V: 90},
		Upper:      HSV{H: 70, S: 225, V: 255},
		Iterations: 2,
		MinRadius:  20,
	}
}
