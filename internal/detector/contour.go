package detector

import (
	"github.com/snapscan/snapscan/internal/utils"
)

// compStats holds per-component pixel statistics.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// labelComponents finds 8-connected components in the edge mask. Components
// are numbered from 1 in row-major discovery order, which fixes the tie-break
// order for equal-area boundary candidates.
func labelComponents(mask []bool, w, h int) ([]int, []compStats) {
	labels := make([]int, w*h)
	var comps []compStats
	var stack []int

	label := 0
	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || labels[idx] != 0 {
				continue
			}
			label++
			st := compStats{minX: x, minY: y, maxX: x, maxY: y}
			stack = append(stack[:0], idx)
			labels[idx] = label
			for len(stack) > 0 {
				ci := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := ci%w, ci/w
				st.count++
				if cx < st.minX {
					st.minX = cx
				}
				if cx > st.maxX {
					st.maxX = cx
				}
				if cy < st.minY {
					st.minY = cy
				}
				if cy > st.maxY {
					st.maxY = cy
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := cx+dx, cy+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						ni := ny*w + nx
						if mask[ni] && labels[ni] == 0 {
							labels[ni] = label
							stack = append(stack, ni)
						}
					}
				}
			}
			comps = append(comps, st)
		}
	}
	return labels, comps
}

// traceContourMoore extracts a boundary polygon for the given labeled
// component using Moore-Neighbor tracing, restricted to the component's AABB.
// Returned points are pixel-center coordinates with collinear runs collapsed.
func traceContourMoore(labels []int, w, h, label int, st compStats) []utils.Point {
	if label <= 0 || len(labels) != w*h {
		return nil
	}

	sx, sy := findStartingBoundaryPixel(labels, w, h, label, st)
	if sx == -1 {
		return nil
	}

	pts := make([]utils.Point, 0, 64)
	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack to the left of start

	addPoint := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n >= 2 {
			a := pts[n-2]
			b := pts[n-1]
			// Collapse collinear middle points: (b-a) x (p-b) == 0
			v1x, v1y := b.X-a.X, b.Y-a.Y
			v2x, v2y := p.X-b.X, p.Y-b.Y
			if v1x*v2y-v1y*v2x == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	addPoint(cx, cy)

	startCx, startCy := cx, cy
	maxSteps := w*h*4 + 8

	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, found := findNextBoundaryPixel(labels, w, h, label, cx, cy, bx, by)
		if !found {
			break
		}
		bx, by = nbx, nby
		cx, cy = nx, ny

		// The start pixel is the topmost-leftmost boundary pixel, so
		// re-entering it means the outer circuit is complete.
		if cx == startCx && cy == startCy {
			break
		}
		if shouldAddPoint(pts, cx, cy) {
			addPoint(cx, cy)
		}
	}

	// Remove duplicated closing point if present.
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func shouldAddPoint(pts []utils.Point, x, y int) bool {
	if len(pts) == 0 {
		return true
	}
	last := pts[len(pts)-1]
	return last.X != float64(x) || last.Y != float64(y)
}

// findStartingBoundaryPixel finds the first boundary pixel within the
// component's AABB.
func findStartingBoundaryPixel(labels []int, w, h, label int, st compStats) (int, int) {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if isBoundaryPixel(labels, w, h, label, x, y) {
				return x, y
			}
		}
	}
	// Fallback: any pixel of the label.
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if isLabelPixel(labels, w, h, label, x, y) {
				return x, y
			}
		}
	}
	return -1, -1
}

func isBoundaryPixel(labels []int, w, h, label, x, y int) bool {
	if !isLabelPixel(labels, w, h, label, x, y) {
		return false
	}
	return !isLabelPixel(labels, w, h, label, x+1, y) ||
		!isLabelPixel(labels, w, h, label, x-1, y) ||
		!isLabelPixel(labels, w, h, label, x, y+1) ||
		!isLabelPixel(labels, w, h, label, x, y-1)
}

func isLabelPixel(labels []int, w, h, label, x, y int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return labels[y*w+x] == label
}

// findNextBoundaryPixel finds the next boundary pixel in the Moore
// neighborhood, scanning clockwise from the backtrack position.
func findNextBoundaryPixel(labels []int, w, h, label, cx, cy, bx, by int) (int, int, int, int, bool) {
	// 8-neighborhood clockwise order: E, SE, S, SW, W, NW, N, NE
	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}

	dirIndex := func(dx, dy int) int {
		for i := range 8 {
			if ndx[i] == dx && ndy[i] == dy {
				return i
			}
		}
		return 0
	}

	dx, dy := bx-cx, by-cy
	start := (dirIndex(dx, dy) + 1) % 8

	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+ndx[i], cy+ndy[i]
		if isLabelPixel(labels, w, h, label, tx, ty) {
			return tx, ty, cx, cy, true
		}
		// advance backtrack to this neighbor for clockwise scanning
		bx, by = tx, ty
	}
	return 0, 0, bx, by, false
}
