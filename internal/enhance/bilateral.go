package enhance

import "math"

// bilateralFilter smooths a grayscale plane while preserving edges. Each
// output pixel is a weighted mean of its neighborhood where the weight is the
// product of a spatial Gaussian and an intensity-difference Gaussian, so
// pixels across a strong edge contribute almost nothing.
func bilateralFilter(src []uint8, w, h, diameter int, sigmaSpace, sigmaColor float64) []uint8 {
	r := diameter / 2
	if r < 1 {
		out := make([]uint8, len(src))
		copy(out, src)
		return out
	}

	side := 2*r + 1
	spatial := make([]float64, side*side)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+r)*side+(dx+r)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var colorLUT [256]float64
	for d := range colorLUT {
		colorLUT[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}

	dst := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			center := src[y*w+x]
			var sum, norm float64
			for dy := -r; dy <= r; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					v := src[ny*w+nx]
					diff := int(v) - int(center)
					if diff < 0 {
						diff = -diff
					}
					wgt := spatial[(dy+r)*side+(dx+r)] * colorLUT[diff]
					sum += wgt * float64(v)
					norm += wgt
				}
			}
			dst[y*w+x] = uint8(sum/norm + 0.5)
		}
	}
	return dst
}
