package enhance

import "math"

// claheEqualize performs contrast-limited adaptive histogram equalization on
// a tightly packed grayscale plane. The image is divided into a tiles x tiles
// grid; each tile gets its own clipped-histogram mapping, and every pixel is
// remapped by bilinear interpolation between the four nearest tile mappings
// so tile borders stay invisible.
func claheEqualize(src []uint8, w, h, tiles int, clip float64) []uint8 {
	if tiles < 1 {
		tiles = 1
	}
	if tiles > w {
		tiles = w
	}
	if tiles > h {
		tiles = h
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// one 256-entry lookup table per tile
	luts := make([][256]uint8, tiles*tiles)
	for ty := range tiles {
		for tx := range tiles {
			x0 := tx * tileW
			y0 := ty * tileH
			x1 := min(x0+tileW, w)
			y1 := min(y0+tileH, h)
			buildTileLUT(src, w, x0, y0, x1, y1, clip, &luts[ty*tiles+tx])
		}
	}

	dst := make([]uint8, w*h)
	for y := range h {
		// fractional tile-center coordinate of this row
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := clampInt(ty0+1, 0, tiles-1)
		ty0 = clampInt(ty0, 0, tiles-1)

		for x := range w {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := clampInt(tx0+1, 0, tiles-1)
			tx0 = clampInt(tx0, 0, tiles-1)

			v := src[y*w+x]
			tl := float64(luts[ty0*tiles+tx0][v])
			tr := float64(luts[ty0*tiles+tx1][v])
			bl := float64(luts[ty1*tiles+tx0][v])
			br := float64(luts[ty1*tiles+tx1][v])

			top := tl + (tr-tl)*wx
			bot := bl + (br-bl)*wx
			dst[y*w+x] = uint8(top + (bot-top)*wy + 0.5)
		}
	}
	return dst
}

// buildTileLUT computes the clipped equalization mapping for one tile.
// Histogram counts above the clip limit are redistributed uniformly, which
// caps how much a near-flat region can be amplified.
func buildTileLUT(src []uint8, stride, x0, y0, x1, y1 int, clip float64, lut *[256]uint8) {
	var hist [256]int
	area := (x1 - x0) * (y1 - y0)
	if area == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return
	}
	for y := y0; y < y1; y++ {
		row := src[y*stride : y*stride+stride]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}

	peak := 0
	for _, c := range hist {
		if c > peak {
			peak = c
		}
	}

	limit := int(clip * float64(area) / 256.0)
	// For small tiles the fractional limit collapses to a single count and
	// redistribution flattens the mapping entirely. A floor relative to the
	// histogram peak keeps concentrated histograms equalizable.
	if minLimit := peak / 4; limit < minLimit {
		limit = minLimit
	}
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	// uniform redistribution of the clipped mass
	share := excess / 256
	rem := excess % 256
	for i := range hist {
		hist[i] += share
		if i < rem {
			hist[i]++
		}
	}

	cum := 0
	scale := 255.0 / float64(area)
	for i, c := range hist {
		cum += c
		lut[i] = uint8(math.Round(float64(cum) * scale))
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
