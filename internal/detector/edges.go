package detector

import (
	"github.com/snapscan/snapscan/internal/mempool"
)

// cannyEdges produces a binary edge map from a grayscale plane: Sobel
// gradients, non-maximum suppression along the gradient direction, then
// two-threshold hysteresis. Magnitudes use the L1 norm |gx|+|gy|, matching
// the scale the default thresholds are tuned for.
func cannyEdges(gray []uint8, w, h int, low, high float32) []bool {
	mag := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(mag)
	dir := mempool.GetUint8(w * h)
	defer mempool.PutUint8(dir)

	sobel(gray, w, h, mag, dir)
	thin := mempool.GetBool(w * h)
	defer mempool.PutBool(thin)
	nonMaxSuppress(mag, dir, w, h, low, thin)

	return hysteresis(mag, thin, w, h, low, high)
}

// sobel fills mag with L1 gradient magnitudes and dir with the quantized
// gradient direction (0: horizontal, 1: 45°, 2: vertical, 3: 135°).
// Border pixels get zero magnitude.
func sobel(gray []uint8, w, h int, mag []float32, dir []uint8) {
	for i := range mag {
		mag[i] = 0
		dir[i] = 0
	}
	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			i := row + x
			tl := float32(gray[i-w-1])
			tc := float32(gray[i-w])
			tr := float32(gray[i-w+1])
			ml := float32(gray[i-1])
			mr := float32(gray[i+1])
			bl := float32(gray[i+w-1])
			bc := float32(gray[i+w])
			br := float32(gray[i+w+1])

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			ax, ay := gx, gy
			if ax < 0 {
				ax = -ax
			}
			if ay < 0 {
				ay = -ay
			}
			mag[i] = ax + ay
			dir[i] = quantizeDirection(gx, gy)
		}
	}
}

// quantizeDirection buckets the gradient angle into one of four sectors.
func quantizeDirection(gx, gy float32) uint8 {
	ax, ay := gx, gy
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	// tan(22.5°) ≈ 0.4142, tan(67.5°) ≈ 2.4142
	switch {
	case ay <= 0.4142*ax:
		return 0 // gradient horizontal, edge vertical
	case ay >= 2.4142*ax:
		return 2 // gradient vertical, edge horizontal
	case (gx >= 0) == (gy >= 0):
		return 1
	default:
		return 3
	}
}

// nonMaxSuppress keeps only pixels that are local maxima along their gradient
// direction and at least at the low threshold.
func nonMaxSuppress(mag []float32, dir []uint8, w, h int, low float32, keep []bool) {
	for y := 1; y < h-1; y++ {
		row := y * w
		for x := 1; x < w-1; x++ {
			i := row + x
			m := mag[i]
			if m < low {
				continue
			}
			var a, b float32
			switch dir[i] {
			case 0:
				a, b = mag[i-1], mag[i+1]
			case 2:
				a, b = mag[i-w], mag[i+w]
			case 1:
				a, b = mag[i-w-1], mag[i+w+1]
			default:
				a, b = mag[i-w+1], mag[i+w-1]
			}
			if m >= a && m >= b {
				keep[i] = true
			}
		}
	}
}

// hysteresis grows edges from strong pixels (>= high) through connected weak
// pixels (>= low), 8-connected. Returns a pooled mask; the caller must return
// it via mempool.PutBool.
func hysteresis(mag []float32, thin []bool, w, h int, low, high float32) []bool {
	out := mempool.GetBool(w * h)
	stack := make([]int, 0, 1024)
	for i := range thin {
		if thin[i] && mag[i] >= high {
			out[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if !out[ni] && thin[ni] && mag[ni] >= low {
					out[ni] = true
					stack = append(stack, ni)
				}
			}
		}
	}
	return out
}

// dilate3x3 grows the mask by one pixel in all directions, closing small gaps
// in edge chains before contour extraction.
func dilate3x3(mask []bool, w, h int) {
	src := mempool.GetBool(w * h)
	defer mempool.PutBool(src)
	copy(src, mask)
	for y := range h {
		row := y * w
		for x := range w {
			if src[row+x] {
				continue
			}
			if hasSetNeighbor(src, w, h, x, y) {
				mask[row+x] = true
			}
		}
	}
}

func hasSetNeighbor(mask []bool, w, h, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= h {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= w {
				continue
			}
			if mask[ny*w+nx] {
				return true
			}
		}
	}
	return false
}
