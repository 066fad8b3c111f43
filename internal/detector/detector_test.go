package detector

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/safetycam/internal/gesture"
)

func TestMockDetector_PlaysBackSamples(t *testing.T) {
	m := NewMockDetector()
	m.SetSamples([]gesture.Sample{gesture.At(1, 2), gesture.Miss()}, false)

	det, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if det.Center != gesture.At(1, 2) {
		t.Errorf("expected first sample (1,2), got %+v", det.Center)
	}

	det, _ = m.Detect(nil)
	if det.Center.Present {
		t.Errorf("expected a miss, got %+v", det.Center)
	}

	// Exhausted without loop: misses from here on
	det, _ = m.Detect(nil)
	if det.Center.Present {
		t.Errorf("expected a miss after playback, got %+v", det.Center)
	}

	if m.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", m.Calls())
	}
}

func TestMockDetector_Loop(t *testing.T) {
	m := NewMockDetector()
	m.SetSamples([]gesture.Sample{gesture.At(5, 5)}, true)

	for i := 0; i < 5; i++ {
		det, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("Detect() iteration %d error = %v", i, err)
		}
		if det.Center != gesture.At(5, 5) {
			t.Errorf("iteration %d: expected (5,5), got %+v", i, det.Center)
		}
	}
}

func TestMockDetector_Error(t *testing.T) {
	m := NewMockDetector()
	want := errors.New("detector failed")
	m.SetError(want)

	if _, err := m.Detect(nil); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestCirclePath(t *testing.T) {
	path := CirclePath(40, 40, 100, 100, 50)
	if len(path) != 40 {
		t.Fatalf("expected 40 samples, got %d", len(path))
	}
	for i, s := range path {
		r := math.Hypot(s.X-100, s.Y-100)
		if math.Abs(r-50) > 1e-9 {
			t.Errorf("sample %d: expected radius 50, got %f", i, r)
		}
	}
}

func TestZigzagPath(t *testing.T) {
	path := ZigzagPath(4, 100, 5, 10)
	want := []gesture.Sample{gesture.At(0, 110), gesture.At(5, 90), gesture.At(10, 110), gesture.At(15, 90)}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("sample %d: expected %+v, got %+v", i, want[i], path[i])
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Lower != (HSV{H: 38, S: 90, V: 90}) {
		t.Errorf("unexpected lower bound %+v", cfg.Lower)
	}
	if cfg.Upper != (HSV{H: 70, S: 225, V: 255}) {
		t.Errorf("unexpected upper bound %+v", cfg.Upper)
	}
	if cfg.Iterations != 2 || cfg.MinRadius != 20 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestColorDetector_FindsGreenBall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test")
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Circle(&frame, image.Pt(200, 150), 40, color.RGBA{R: 40, G: 200, B: 40, A: 255}, -1)

	d := NewColorDetector(DefaultConfig())
	defer d.Close()

	det, err := d.Detect(&frame)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !det.Center.Present {
		t.Fatal("expected the ball to be found")
	}
	if math.Abs(det.Center.X-200) > 2 || math.Abs(det.Center.Y-150) > 2 {
		t.Errorf("expected center near (200,150), got (%f,%f)", det.Center.X, det.Center.Y)
	}
	if math.Abs(det.Radius-40) > 3 {
		t.Errorf("expected radius near 40, got %f", det.Radius)
	}
	if !det.Drawable(DefaultConfig().MinRadius) {
		t.Error("expected a 40px ball to be drawable")
	}
}

func TestColorDetector_NoBall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test")
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	// A red ball is outside the green range
	gocv.Circle(&frame, image.Pt(200, 150), 40, color.RGBA{R: 220, G: 30, B: 30, A: 255}, -1)

	d := NewColorDetector(DefaultConfig())
	defer d.Close()

	det, err := d.Detect(&frame)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if det.Center.Present {
		t.Errorf("expected a miss, got %+v", det.Center)
	}
}

func TestColorDetector_EmptyFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test")
	}

	d := NewColorDetector(DefaultConfig())
	defer d.Close()

	if _, err := d.Detect(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestDetection_Drawable(t *testing.T) {
	tests := []struct {
		name string
		det  Detection
		want bool
	}{
		{"miss", Detection{Center: gesture.Miss(), Radius: 50}, false},
		{"too small", Detection{Center: gesture.At(1, 1), Radius: 20}, false},
		{"large enough", Detection{Center: gesture.At(1, 1), Radius: 21}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.det.Drawable(20); got != tt.want {
				t.Errorf("Drawable(20) = %v, want %v", got, tt.want)
			}
		})
	}
}
