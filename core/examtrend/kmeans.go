package examtrend

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeans is a seeded Lloyd's k-means with k-means++ seeding.
// A kmeans value holds a random source and must not be shared between goroutines.
type kmeans struct {
	k       int
	maxIter int
	tol     float64
	rng     *rand.Rand
}

func newKMeans(k int, seed int64, maxIter int, tol float64) *kmeans {
	return &kmeans{
		k:       k,
		maxIter: maxIter,
		tol:     tol,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// fit returns the cluster label of every point, in [0, k).
// k is lowered to the number of distinct points when there are fewer of them.
func (km *kmeans) fit(points [][]float64) []int {
	n := len(points)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}

	k := distinctUpTo(points, km.k)
	if k <= 1 {
		return labels
	}

	centers := km.seedCenters(points, k)
	for iter := 0; iter < km.maxIter; iter++ {
		changed := assign(points, centers, labels)
		if iter > 0 && !changed {
			break
		}
		if shift := update(points, labels, centers); shift <= km.tol*km.tol {
			assign(points, centers, labels)
			break
		}
	}
	return labels
}

// seedCenters picks k distinct initial centers with the k-means++ strategy.
func (km *kmeans) seedCenters(points [][]float64, k int) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, clonePoint(points[km.rng.Intn(n)]))

	dists := make([]float64, n)
	for len(centers) < k {
		var sum float64
		for i, p := range points {
			_, dists[i] = nearest(p, centers)
			sum += dists[i]
		}
		if sum == 0 {
			break
		}

		target := km.rng.Float64() * sum
		idx, last := -1, -1
		var acc float64
		for i, d := range dists {
			if d == 0 {
				continue
			}
			last = i
			acc += d
			if acc >= target {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = last
		}
		centers = append(centers, clonePoint(points[idx]))
	}
	return centers
}

// assign sets each label to its nearest center and reports whether any label changed.
func assign(points, centers [][]float64, labels []int) bool {
	var changed bool
	for i, p := range points {
		c, _ := nearest(p, centers)
		if labels[i] != c {
			labels[i] = c
			changed = true
		}
	}
	return changed
}

// update moves every center to the mean of its points and returns the largest squared shift.
// A center without points stays where it is.
func update(points [][]float64, labels []int, centers [][]float64) float64 {
	dims := len(centers[0])
	sums := make([][]float64, len(centers))
	counts := make([]int, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	var maxShift float64
	for c, sum := range sums {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sum)
		if shift := sqDist(sum, centers[c]); shift > maxShift {
			maxShift = shift
		}
		copy(centers[c], sum)
	}
	return maxShift
}

// nearest returns the index of the closest center and the squared distance to it.
// Ties go to the lowest index.
func nearest(p []float64, centers [][]float64) (int, float64) {
	best, bestDist := 0, sqDist(p, centers[0])
	for c := 1; c < len(centers); c++ {
		if d := sqDist(p, centers[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// distinctUpTo counts the distinct points, stopping at limit.
func distinctUpTo(points [][]float64, limit int) int {
	uniq := make([][]float64, 0, limit)
	for _, p := range points {
		if len(uniq) == limit {
			break
		}
		seen := false
		for _, u := range uniq {
			if floats.Equal(u, p) {
				seen = true
				break
			}
		}
		if !seen {
			uniq = append(uniq, p)
		}
	}
	return len(uniq)
}

func clonePoint(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}
