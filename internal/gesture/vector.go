package gesture

import "gonum.org/v1/gonum/spatial/r2"

// Present returns the positions of the present samples, keeping their order.
func Present(samples []Sample) []r2.Vec {
	points := make([]r2.Vec, 0, len(samples))
	for _, s := range samples {
		if s.Present {
			points = append(points, r2.Vec{X: s.X, Y: s.Y})
		}
	}
	return points
}

// Vectorize returns the displacement from each point to the next, dropping
// displacements whose magnitude does not exceed noiseThreshold.
//
// Dropped displacements are removed outright, so neighbours in the result
// need not be neighbours in time.
func Vectorize(points []r2.Vec, noiseThreshold float64) []r2.Vec {
	if len(points) < 2 {
		return nil
	}

	vectors := make([]r2.Vec, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		v := r2.Sub(points[i+1], points[i])
		if r2.Norm(v) > noiseThreshold {
			vectors = append(vectors, v)
		}
	}
	return vectors
}
