// Package mempool provides sized sync.Pool buffers for the pixel-plane
// scratch slices used on the detection and enhancement hot paths.
package mempool

import (
	"sync"
)

// sizeClass rounds n up to the next multiple of 1024 to reduce pool churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

type slicePool[T any] struct {
	pools sync.Map // key: size class (int), value: *sync.Pool
}

func (sp *slicePool[T]) get(n int) []T {
	cls := sizeClass(n)
	pAny, _ := sp.pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]T, n)
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func (sp *slicePool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cap(buf) < cls {
		return // undersized stray buffer, drop it
	}
	pAny, _ := sp.pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cls])
	}
}

var (
	uint8Pool   slicePool[uint8]
	float32Pool slicePool[float32]
	boolPool    slicePool[bool]
)

// GetUint8 retrieves a []uint8 plane of length n. Contents are undefined;
// callers must overwrite every element they read. Return via PutUint8.
func GetUint8(n int) []uint8 { return uint8Pool.get(n) }

// PutUint8 returns a plane to the pool. Safe to pass nil.
func PutUint8(buf []uint8) { uint8Pool.put(buf) }

// GetFloat32 retrieves a []float32 buffer of length n. Return via PutFloat32.
func GetFloat32(n int) []float32 { return float32Pool.get(n) }

// PutFloat32 returns a buffer to the pool. Safe to pass nil.
func PutFloat32(buf []float32) { float32Pool.put(buf) }

// GetBool retrieves a []bool mask of length n with all elements false.
// Return via PutBool.
func GetBool(n int) []bool {
	buf := boolPool.get(n)
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a mask to the pool. Safe to pass nil.
func PutBool(buf []bool) { boolPool.put(buf) }
