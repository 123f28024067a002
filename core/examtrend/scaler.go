package examtrend

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// zeroStdTolerance absorbs the rounding noise left by the mean of a constant column.
const zeroStdTolerance = 1e-12

// standardize returns a copy of points where every column is centered on its mean and
// divided by its population standard deviation. A column without variance is set to 0.
func standardize(points [][]float64) [][]float64 {
	n := len(points)
	if n == 0 {
		return [][]float64{}
	}
	dims := len(points[0])

	scaled := make([][]float64, n)
	for i := range scaled {
		scaled[i] = make([]float64, dims)
	}

	col := make([]float64, n)
	for d := 0; d < dims; d++ {
		for i, p := range points {
			col[i] = p[d]
		}
		mean := stat.Mean(col, nil)
		std := stat.PopStdDev(col, nil)
		if math.IsNaN(std) || std <= zeroStdTolerance*math.Max(1, math.Abs(mean)) {
			continue // already 0
		}
		for i := range points {
			scaled[i][d] = (col[i] - mean) / std
		}
	}
	return scaled
}
