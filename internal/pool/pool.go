// Package pool provides typed sync.Pool wrappers for the scratch memory used
// while matching command lines (choice traces, position lists) and for the
// byte buffers the middleware logger formats into.
package pool

import (
	"sync"
)

// Pool is a generic, type-safe object pool.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T) // called on every Get
}

// NewPool creates a pool with the given factory function.
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool whose objects pass through reset before
// being handed out again.
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one.
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

// BufferPool pools byte slices in power-of-two capacity buckets.
type BufferPool struct {
	buckets []int
	pools   []*Pool[[]byte]
}

// NewBufferPool creates a buffer pool with buckets from 64 bytes to 4 KiB.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{buckets: []int{64, 128, 256, 512, 1024, 2048, 4096}}
	for _, c := range bp.buckets {
		capacity := c
		bp.pools = append(bp.pools, NewPoolWithReset(
			func() *[]byte {
				buf := make([]byte, 0, capacity)
				return &buf
			},
			func(buf *[]byte) {
				*buf = (*buf)[:0]
			},
		))
	}
	return bp
}

// Get returns an empty buffer with at least minCap capacity.
func (bp *BufferPool) Get(minCap int) *[]byte {
	i := bp.bucket(minCap)
	if i < 0 {
		buf := make([]byte, 0, minCap)
		return &buf
	}
	return bp.pools[i].Get()
}

// Put returns buf to the largest bucket its capacity satisfies. Buffers that
// grew far beyond the largest bucket are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	c := cap(*buf)
	if c > 2*bp.buckets[len(bp.buckets)-1] {
		return
	}
	for i := len(bp.buckets) - 1; i >= 0; i-- {
		if c >= bp.buckets[i] {
			bp.pools[i].Put(buf)
			return
		}
	}
}

func (bp *BufferPool) bucket(minCap int) int {
	for i, c := range bp.buckets {
		if c >= minCap {
			return i
		}
	}
	return -1
}

// Int32Slices pools []int32 scratch slices.
type Int32Slices struct {
	*Pool[[]int32]
}

// NewInt32Slices creates a pool of int32 slices with the given initial
// capacity.
func NewInt32Slices(defaultCap int) *Int32Slices {
	return &Int32Slices{
		Pool: NewPoolWithReset(
			func() *[]int32 {
				s := make([]int32, 0, defaultCap)
				return &s
			},
			func(s *[]int32) {
				*s = (*s)[:0]
			},
		),
	}
}

var (
	// GlobalBufferPool backs GetBuffer / PutBuffer.
	GlobalBufferPool = NewBufferPool()

	// GlobalInt32Slices backs GetInt32Slice / PutInt32Slice.
	GlobalInt32Slices = NewInt32Slices(32)
)

// GetBuffer retrieves a buffer for temporary formatting.
func GetBuffer(minCap int) *[]byte {
	return GlobalBufferPool.Get(minCap)
}

// PutBuffer returns a buffer to the global pool.
func PutBuffer(buf *[]byte) {
	GlobalBufferPool.Put(buf)
}

// GetInt32Slice retrieves an empty int32 slice.
func GetInt32Slice() *[]int32 {
	return GlobalInt32Slices.Get()
}

// PutInt32Slice returns an int32 slice to the global pool.
func PutInt32Slice(s *[]int32) {
	GlobalInt32Slices.Put(s)
}
