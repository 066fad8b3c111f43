package detector

import (
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/gesture"
)

// ColorDetector finds the largest blob within an HSV color range.
//
// Algorithm:
// 1. Convert frame to HSV
// 2. Threshold to the configured color range
// 3. Erode then dilate to remove small blobs
// 4. Find external contours and keep the largest by area
// 5. Centroid from contour moments, plus the minimum enclosing circle
type ColorDetector struct {
	config Config
	kernel gocv.Mat
	hsv    gocv.Mat
	mask   gocv.Mat
	mu     sync.Mutex
}

// NewColorDetector creates a ColorDetector with the given configuration.
func NewColorDetector(config Config) *ColorDetector {
	if config.Iterations < 0 {
		config.Iterations = 0
	}
	return &ColorDetector{
		config: config,
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		hsv:    gocv.NewMat(),
		mask:   gocv.NewMat(),
	}
}

// Detect looks for the colored object in a BGR frame.
func (d *ColorDetector) Detect(frame *gocv.Mat) (Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Detection{}, ErrEmptyFrame
	}

	gocv.CvtColor(*frame, &d.hsv, gocv.ColorBGRToHSV)

	lower := gocv.NewScalar(d.config.Lower.H, d.config.Lower.S, d.config.Lower.V, 0)
	upper := gocv.NewScalar(d.config.Upper.H, d.config.Upper.S, d.config.Upper.V, 0)
	gocv.InRangeWithScalar(d.hsv, lower, upper, &d.mask)

	for i := 0; i < d.config.Iterations; i++ {
		gocv.Erode(d.mask, &d.mask, d.kernel)
	}
	for i := 0; i < d.config.Iterations; i++ {
		gocv.Dilate(d.mask, &d.mask, d.kernel)
	}

	contours := gocv.FindContours(d.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return Detection{Center: gesture.Miss()}, nil
	}

	best, bestArea := 0, -1.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > bestArea {
			best, bestArea = i, area
		}
	}
	contour := contours.At(best)

	x, y, radius := gocv.MinEnclosingCircle(contour)
	det := Detection{
		CircleX: float64(x),
		CircleY: float64(y),
		Radius:  float64(radius),
	}

	cx, cy, ok := centroid(contour)
	if !ok {
		cx, cy = det.CircleX, det.CircleY
	}
	det.Center = gesture.At(math.Trunc(cx), math.Trunc(cy))

	return det, nil
}

// Close releases the detector's buffers.
func (d *ColorDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.kernel.Close()
	d.hsv.Close()
	d.mask.Close()
	return nil
}

// centroid returns the centre of mass of a contour. It fails for contours
// with zero area.
func centroid(contour gocv.PointVector) (float64, float64, bool) {
	mat := gocv.NewMatFromPointVector(contour, true)
	defer mat.Close()

	m := gocv.Moments(mat, false)
	if m["m00"] == 0 {
		return 0, 0, false
	}
	return m["m10"] / m["m00"], m["m01"] / m["m00"], true
}
