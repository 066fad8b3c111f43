package capture

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/detector"
	"github.com/ayusman/safetycam/internal/gesture"
)

// QuitKey closes the display loop when pressed in the window.
const QuitKey = 'q'

var (
	circleColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	trailColor  = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// TrailThickness returns the line width for the trail segment ending at
// position i of a newest-first buffer with the given capacity. Older
// segments are thinner.
func TrailThickness(capacity, i int) int {
	if capacity < 1 || i < 0 {
		return 1
	}
	w := int(math.Sqrt(float64(capacity)/float64(i+1)) * 2.5)
	if w < 1 {
		return 1
	}
	return w
}

// DrawTrail connects consecutive present samples of a newest-first trail.
// Segments touching a missed sample are skipped.
func DrawTrail(frame *gocv.Mat, trail []gesture.Sample, capacity int) {
	for i := 1; i < len(trail); i++ {
		prev, cur := trail[i-1], trail[i]
		if !prev.Present || !cur.Present {
			continue
		}
		gocv.Line(frame, point(prev), point(cur), trailColor, TrailThickness(capacity, i))
	}
}

// DrawDetection outlines the enclosing circle and marks the centroid.
func DrawDetection(frame *gocv.Mat, det detector.Detection) {
	center := image.Pt(int(det.CircleX), int(det.CircleY))
	gocv.Circle(frame, center, int(det.Radius), circleColor, 2)
	gocv.Circle(frame, point(det.Center), 5, trailColor, -1)
}

func point(s gesture.Sample) image.Point {
	return image.Pt(int(s.X), int(s.Y))
}

// Window shows annotated frames in a native OpenCV window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a named display window.
func NewWindow(name string) *Window {
	return &Window{window: gocv.NewWindow(name)}
}

// Show displays the frame and polls the keyboard. It returns true when
// the quit key was pressed or the window was closed.
func (w *Window) Show(frame *gocv.Mat) bool {
	w.window.IMShow(*frame)
	key := w.window.WaitKey(1)
	if key&0xFF == QuitKey {
		return true
	}
	return !w.window.IsOpen()
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
