package pool

import (
	"sync"
	"testing"
)

func TestPool_Basic(t *testing.T) {
	p := NewPool(func() *int {
		x := 42
		return &x
	})

	obj := p.Get()
	if *obj != 42 {
		t.Errorf("Expected 42, got %d", *obj)
	}
	p.Put(obj)
	p.Put(nil) // must not panic
}

func TestPool_WithReset(t *testing.T) {
	resetCalled := false
	p := NewPoolWithReset(
		func() *[]int {
			slice := make([]int, 0, 10)
			return &slice
		},
		func(slice *[]int) {
			*slice = (*slice)[:0]
			resetCalled = true
		},
	)

	slice1 := p.Get()
	*slice1 = append(*slice1, 1, 2, 3)
	p.Put(slice1)

	slice2 := p.Get()
	if !resetCalled {
		t.Error("Reset function was not called")
	}
	if len(*slice2) != 0 {
		t.Errorf("Expected empty slice after reset, got length %d", len(*slice2))
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPoolWithReset(
		func() *[]int32 {
			s := make([]int32, 0, 8)
			return &s
		},
		func(s *[]int32) { *s = (*s)[:0] },
	)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s := p.Get()
				if len(*s) != 0 {
					t.Errorf("goroutine %d: got non-empty slice", g)
					return
				}
				*s = append(*s, int32(i))
				p.Put(s)
			}
		}(g)
	}
	wg.Wait()
}

func TestBufferPool_GetPut(t *testing.T) {
	bp := NewBufferPool()

	for _, want := range []int{1, 64, 100, 1000, 4096} {
		buf := bp.Get(want)
		if cap(*buf) < want {
			t.Errorf("Get(%d) capacity %d, want >= %d", want, cap(*buf), want)
		}
		if len(*buf) != 0 {
			t.Errorf("Get(%d) length %d, want 0", want, len(*buf))
		}
		*buf = append(*buf, "data"...)
		bp.Put(buf)
	}
}

func TestBufferPool_Oversized(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(100000)
	if cap(*buf) < 100000 {
		t.Errorf("capacity %d, want >= 100000", cap(*buf))
	}
	bp.Put(buf) // dropped, must not panic

	small := make([]byte, 0, 8)
	bp.Put(&small) // below smallest bucket, dropped
}

func TestBufferPool_ReturnedBufferIsEmpty(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(64)
	*buf = append(*buf, "leftover"...)
	bp.Put(buf)

	again := bp.Get(64)
	if len(*again) != 0 {
		t.Errorf("expected empty buffer, got %q", *again)
	}
}

func TestInt32Slices(t *testing.T) {
	s := GetInt32Slice()
	if len(*s) != 0 {
		t.Fatalf("expected empty slice, got length %d", len(*s))
	}
	*s = append(*s, 1, 0, 2)
	PutInt32Slice(s)

	again := GetInt32Slice()
	if len(*again) != 0 {
		t.Errorf("expected reset slice, got %v", *again)
	}
	PutInt32Slice(again)
}

func TestGlobalBuffers(t *testing.T) {
	buf := GetBuffer(256)
	if cap(*buf) < 256 {
		t.Errorf("GetBuffer(256) capacity %d", cap(*buf))
	}
	PutBuffer(buf)
}
