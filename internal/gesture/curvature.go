package gesture

import "gonum.org/v1/gonum/spatial/r2"

// Turns returns the signed cross product of each pair of consecutive vectors.
// The sign gives the turning direction.
func Turns(vectors []r2.Vec) []float64 {
	if len(vectors) < 2 {
		return nil
	}

	turns := make([]float64, len(vectors)-1)
	for i := range turns {
		turns[i] = r2.Cross(vectors[i], vectors[i+1])
	}
	return turns
}

// Flips returns the product of each pair of consecutive turns. A negative
// flip marks a reversal of turning direction.
func Flips(turns []float64) []float64 {
	if len(turns) < 2 {
		return nil
	}

	flips := make([]float64, len(turns)-1)
	for i := range flips {
		flips[i] = turns[i] * turns[i+1]
	}
	return flips
}
