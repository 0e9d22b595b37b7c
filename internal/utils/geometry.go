package utils

import "math"

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PolygonArea returns the enclosed area of a polygon via the shoelace formula.
// Vertex order (CW or CCW) does not matter; the result is always >= 0.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeter returns the closed-polygon perimeter length.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	sum := 0.0
	for i, p := range pts {
		sum += Distance(p, pts[(i+1)%len(pts)])
	}
	return sum
}

// OrderQuad canonicalizes four corner points into {top-left, top-right,
// bottom-right, bottom-left} order. The top-left corner has the minimum x+y
// sum and the bottom-right the maximum; of the remaining two, the top-right
// has the smaller y-x difference. Selections are by distinct index, so the
// result is always a permutation of the input, even for quads rotated near
// 45 degrees where one point could win both a sum and a diff criterion.
func OrderQuad(pts []Point) [4]Point {
	var quad [4]Point
	if len(pts) != 4 {
		return quad
	}
	tl := 0
	for i, p := range pts {
		if p.X+p.Y < pts[tl].X+pts[tl].Y {
			tl = i
		}
	}
	br := -1
	for i, p := range pts {
		if i == tl {
			continue
		}
		if br == -1 || p.X+p.Y > pts[br].X+pts[br].Y {
			br = i
		}
	}
	rest := make([]int, 0, 2)
	for i := range pts {
		if i != tl && i != br {
			rest = append(rest, i)
		}
	}
	tr, bl := rest[0], rest[1]
	if pts[tr].Y-pts[tr].X > pts[bl].Y-pts[bl].X {
		tr, bl = bl, tr
	}
	quad[0], quad[1], quad[2], quad[3] = pts[tl], pts[tr], pts[br], pts[bl]
	return quad
}

// ScalePoints returns a scaled copy of points.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// BoundingBox returns minX, minY, maxX, maxY for a set of points.
func BoundingBox(pts []Point) (float64, float64, float64, float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// SimplifyClosedPolygon reduces the vertex count of a closed contour using the
// Douglas-Peucker algorithm with tolerance epsilon. The contour is split at
// its two mutually farthest vertices so the simplification respects closure;
// a rectangle traced pixel-by-pixel collapses to its four corners.
func SimplifyClosedPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	a := farthestFrom(pts, pts[0])
	b := farthestFrom(pts, pts[a])

	chain1 := sliceWrapped(pts, a, b)
	chain2 := sliceWrapped(pts, b, a)

	s1 := simplifyOpen(chain1, epsilon)
	s2 := simplifyOpen(chain2, epsilon)

	// Endpoints of each chain coincide with the other's; drop one copy.
	out := make([]Point, 0, len(s1)+len(s2)-2)
	out = append(out, s1[:len(s1)-1]...)
	out = append(out, s2[:len(s2)-1]...)
	return out
}

func farthestFrom(pts []Point, ref Point) int {
	best := 0
	bestDist := -1.0
	for i, p := range pts {
		if d := Distance(p, ref); d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// sliceWrapped returns the contour vertices from index i to index j inclusive,
// wrapping around the end of the slice.
func sliceWrapped(pts []Point, i, j int) []Point {
	n := len(pts)
	out := make([]Point, 0, n)
	for k := i; ; k = (k + 1) % n {
		out = append(out, pts[k])
		if k == j {
			break
		}
	}
	return out
}

// simplifyOpen runs Douglas-Peucker on an open polyline, always keeping both
// endpoints.
func simplifyOpen(pts []Point, eps float64) []Point {
	if len(pts) <= 2 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	dpSimplify(pts, 0, len(pts)-1, eps, keep)
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}
