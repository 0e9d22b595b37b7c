package enhance

import (
	"math"

	"github.com/snapscan/snapscan/internal/mempool"
)

// adaptiveThreshold binarizes a grayscale plane against a per-pixel local
// reference. The reference is a Gaussian-weighted mean over a block x block
// neighborhood minus the constant c; pixels above the reference become white,
// the rest black. block must be odd.
func adaptiveThreshold(src []uint8, w, h, block int, c float64) []uint8 {
	r := block / 2
	kernel := gaussianKernel(block)

	// separable blur: horizontal pass into tmp, vertical pass gives the
	// local mean; borders replicate the edge pixel
	tmp := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(tmp)

	for y := range h {
		row := src[y*w : y*w+w]
		for x := range w {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * float64(row[clampInt(x+k, 0, w-1)])
			}
			tmp[y*w+x] = float32(acc)
		}
	}

	dst := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += kernel[k+r] * float64(tmp[clampInt(y+k, 0, h-1)*w+x])
			}
			if float64(src[y*w+x]) > acc-c {
				dst[y*w+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1-D kernel of the given odd size with
// sigma derived from the size, matching the common convention for
// block-parameterized adaptive thresholds.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	r := size / 2
	k := make([]float64, size)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+r] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
