package detector

import (
	"testing"

	"github.com/snapscan/snapscan/internal/mempool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepPlane builds a w x h plane split into a dark left half and bright right
// half, giving one strong vertical edge.
func stepPlane(w, h int) []uint8 {
	gray := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			if x >= w/2 {
				gray[y*w+x] = 220
			} else {
				gray[y*w+x] = 30
			}
		}
	}
	return gray
}

func TestSobelStepEdge(t *testing.T) {
	w, h := 20, 20
	gray := stepPlane(w, h)
	mag := make([]float32, w*h)
	dir := make([]uint8, w*h)
	sobel(gray, w, h, mag, dir)

	// The column straddling the step carries strong horizontal gradient.
	i := 10*w + w/2
	assert.Greater(t, mag[i-1], float32(100))
	assert.Equal(t, uint8(0), dir[i-1])

	// Far away from the step there is no gradient.
	assert.Zero(t, mag[10*w+2])
	// Border rows are zeroed.
	assert.Zero(t, mag[3])
}

func TestCannyEdgesStep(t *testing.T) {
	w, h := 32, 32
	gray := stepPlane(w, h)
	edges := cannyEdges(gray, w, h, 30, 100)
	defer mempool.PutBool(edges)

	count := 0
	for _, e := range edges {
		if e {
			count++
		}
	}
	require.Positive(t, count)
	// Thin vertical edge: roughly one pixel per interior row, never a flood.
	assert.Less(t, count, w*h/4)
}

func TestCannyEdgesUniform(t *testing.T) {
	w, h := 32, 32
	gray := make([]uint8, w*h)
	for i := range gray {
		gray[i] = 128
	}
	edges := cannyEdges(gray, w, h, 30, 100)
	defer mempool.PutBool(edges)
	for i, e := range edges {
		if e {
			t.Fatalf("unexpected edge pixel at %d", i)
		}
	}
}

func TestQuantizeDirection(t *testing.T) {
	assert.Equal(t, uint8(0), quantizeDirection(10, 0))
	assert.Equal(t, uint8(2), quantizeDirection(0, 10))
	assert.Equal(t, uint8(1), quantizeDirection(10, 10))
	assert.Equal(t, uint8(3), quantizeDirection(-10, 10))
}

func TestDilate3x3(t *testing.T) {
	w, h := 7, 7
	mask := make([]bool, w*h)
	mask[3*w+3] = true
	dilate3x3(mask, w, h)

	count := 0
	for _, b := range mask {
		if b {
			count++
		}
	}
	assert.Equal(t, 9, count, "single pixel grows to a 3x3 block")
	assert.True(t, mask[2*w+2])
	assert.True(t, mask[4*w+4])
	assert.False(t, mask[0])
}

func TestDilate3x3ClosesGap(t *testing.T) {
	w, h := 9, 3
	mask := make([]bool, w*h)
	mask[1*w+2] = true
	mask[1*w+6] = true // 3 pixel gap
	dilate3x3(mask, w, h)
	assert.True(t, mask[1*w+3])
	assert.True(t, mask[1*w+5])
}
