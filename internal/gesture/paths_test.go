package gesture

import "math"

// circleSamples returns n samples at regular angular steps around a circle.
func circleSamples(n int, cx, cy, radius float64) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		theta := 2 * math.Pi * float64(i) / float64(n)
		samples[i] = At(cx+radius*math.Cos(theta), cy+radius*math.Sin(theta))
	}
	return samples
}

// zigzagSamples returns n samples stepping forward along x while alternating
// offset units either side of the axis.
func zigzagSamples(n int, step, offset float64) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		y := offset
		if i%2 == 1 {
			y = -offset
		}
		samples[i] = At(float64(i)*step, y)
	}
	return samples
}

// newestFirst reverses samples to the order a TrackBuffer snapshot uses.
func newestFirst(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		out[len(samples)-1-i] = s
	}
	return out
}
