package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 4096, sizeClass(4000))
}

func TestGetPutUint8(t *testing.T) {
	buf := GetUint8(500)
	assert.Len(t, buf, 500)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutUint8(buf)

	again := GetUint8(500)
	assert.Len(t, again, 500)
	PutUint8(again)
}

func TestGetBoolZeroed(t *testing.T) {
	buf := GetBool(2048)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	clean := GetBool(2048)
	for i, v := range clean {
		if v {
			t.Fatalf("element %d not reset", i)
		}
	}
	PutBool(clean)
}

func TestGetFloat32Length(t *testing.T) {
	buf := GetFloat32(300000)
	assert.Len(t, buf, 300000)
	PutFloat32(buf)
}

func TestPutNilIsSafe(t *testing.T) {
	PutUint8(nil)
	PutFloat32(nil)
	PutBool(nil)
}
