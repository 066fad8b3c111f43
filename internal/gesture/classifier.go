package gesture

import "gonum.org/v1/gonum/stat"

// Verdict is the shape classification of a trajectory.
type Verdict int

const (
	// Indeterminate means there was too little motion to judge the shape.
	Indeterminate Verdict = iota
	// Circle means the trajectory turns consistently in one direction.
	Circle
	// NotCircle means the trajectory zigzags or runs straight.
	NotCircle
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Circle:
		return "circle"
	case NotCircle:
		return "not_circle"
	default:
		return "indeterminate"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Metrics summarise the direction reversals in a flip sequence.
type Metrics struct {
	FlipCount    int     `json:"flip_count"`
	FlipRatio    float64 `json:"flip_ratio"`
	FlipVariance float64 `json:"flip_variance"`
}

// Measure computes Metrics over flips. FlipVariance is the population
// variance of the indices of the negative flips.
func Measure(flips []float64) Metrics {
	var negIndices []float64
	for i, f := range flips {
		if f < 0 {
			negIndices = append(negIndices, float64(i))
		}
	}

	m := Metrics{FlipCount: len(negIndices)}
	if len(flips) > 0 {
		m.FlipRatio = float64(m.FlipCount) / float64(len(flips))
	}
	if m.FlipCount > 0 {
		m.FlipVariance = stat.PopVariance(negIndices, nil)
	}
	return m
}

// Analysis is the outcome of classifying one buffer snapshot.
type Analysis struct {
	// Skipped is set when there were too few present samples to classify.
	// Verdict and Metrics are zero in that case.
	Skipped bool

	Verdict       Verdict
	Metrics       Metrics
	PresentPoints int
	Vectors       int
	Flips         int
}

// Classifier turns buffer snapshots into verdicts.
type Classifier struct {
	config Config
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify analyses a snapshot ordered newest first.
func (c *Classifier) Classify(snapshot []Sample) Analysis {
	points := Present(snapshot)
	a := Analysis{PresentPoints: len(points)}

	if len(points) < c.config.MinPresentPoints {
		a.Skipped = true
		return a
	}

	vectors := Vectorize(points, c.config.NoiseThreshold)
	flips := Flips(Turns(vectors))
	a.Vectors = len(vectors)
	a.Flips = len(flips)

	// Too little movement; treat the object as stationary.
	if len(flips) < c.config.MinFlips {
		a.Verdict = Indeterminate
		return a
	}

	a.Metrics = Measure(flips)
	a.Verdict = c.verdict(a.Metrics)
	return a
}

func (c *Classifier) verdict(m Metrics) Verdict {
	if m.FlipCount == 0 {
		return Circle
	}
	if m.FlipRatio < c.config.FlipRatioThreshold && m.FlipVariance < c.config.FlipVarianceThreshold {
		return Circle
	}
	return NotCircle
}
