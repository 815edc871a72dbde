package pool

import (
	"runtime"
	"sync"
	"testing"
)

func TestGetPut_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"op", SizeOp},
		{"small-region", SizeSmallRegion},
		{"med-region", SizeMedRegion},
		{"max-region", SizeMaxRegion},
		{"frame", SizeFrame},
		{"500B", 500},
		{"3000B", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Get(tt.size)
			if len(b) != tt.size {
				t.Errorf("Get(%d): len = %d, want %d", tt.size, len(b), tt.size)
			}
			Put(b)
		})
	}
}

func TestGetPut_LargeCapacity(t *testing.T) {
	// For each size class, request a size within that class and verify
	// the capacity is at least the size class minimum.
	tests := []struct {
		name   string
		size   int
		minCap int
	}{
		{"bucket0_exact", SizeOp, SizeOp},
		{"bucket0_small", 100, SizeOp},
		{"bucket1_exact", SizeSmallRegion, SizeSmallRegion},
		{"bucket1_mid", 1024, SizeSmallRegion},
		{"bucket2_exact", SizeMedRegion, SizeMedRegion},
		{"bucket2_mid", 16384, SizeMedRegion},
		{"bucket3_exact", SizeMaxRegion, SizeMaxRegion},
		{"bucket4_exact", SizeFrame, SizeFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Get(tt.size)
			if cap(b) < tt.minCap {
				t.Errorf("Get(%d): cap = %d, want >= %d", tt.size, cap(b), tt.minCap)
			}
			Put(b)
		})
	}
}

func TestGet_SmallSize(t *testing.T) {
	sizes := []int{1, 10, 64, 128, 255}
	for _, size := range sizes {
		b := Get(size)
		if len(b) != size {
			t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
		}
		if cap(b) < SizeOp {
			t.Errorf("Get(%d): cap = %d, want >= %d", size, cap(b), SizeOp)
		}
		Put(b)
	}
}

func TestGet_LargeSize(t *testing.T) {
	// Sizes larger than the largest bucket (a whole large-preset frame)
	// still work; the pool's New creates SizeFrame slices, so Get must
	// handle the case where cap(b) < size by allocating a new slice.
	largeSize := 2 * SizeFrame
	b := Get(largeSize)
	if len(b) != largeSize {
		t.Errorf("Get(%d): len = %d, want %d", largeSize, len(b), largeSize)
	}
	if cap(b) < largeSize {
		t.Errorf("Get(%d): cap = %d, want >= %d", largeSize, cap(b), largeSize)
	}
	Put(b)

	justOver := SizeFrame + 1
	b2 := Get(justOver)
	if len(b2) != justOver {
		t.Errorf("Get(%d): len = %d, want %d", justOver, len(b2), justOver)
	}
	Put(b2)
}

func TestPut_SmallSlice(t *testing.T) {
	// Put of slices with cap < SizeOp should be a no-op (not panic).
	small := make([]byte, 100)
	Put(small)

	tiny := make([]byte, 0, 10)
	Put(tiny)

	b := Get(SizeOp)
	if len(b) != SizeOp {
		t.Errorf("Get(%d) after small Put: len = %d, want %d", SizeOp, len(b), SizeOp)
	}
	Put(b)
}

func TestConcurrency(t *testing.T) {
	const goroutines = 32
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				// Vary sizes across all bucket classes.
				for _, size := range []int{128, 1024, 4096, 65536, 131072, 524288} {
					b := Get(size)
					if len(b) != size {
						t.Errorf("concurrent Get(%d): len = %d", size, len(b))
						return
					}
					// Write to the buffer to detect data races.
					for j := range b {
						b[j] = byte(j)
					}
					Put(b)
				}
			}
		}()
	}

	wg.Wait()
}

func TestBucketIndex(t *testing.T) {
	// Verify bucket assignment by checking that Get returns buffers
	// with capacity matching the expected size class.
	tests := []struct {
		name       string
		size       int
		wantBucket int
		wantMinCap int
	}{
		{"1->bucket0", 1, 0, SizeOp},
		{"256->bucket0", SizeOp, 0, SizeOp},
		{"257->bucket1", SizeOp + 1, 1, SizeSmallRegion},
		{"4096->bucket1", SizeSmallRegion, 1, SizeSmallRegion},
		{"4097->bucket2", SizeSmallRegion + 1, 2, SizeMedRegion},
		{"65536->bucket2", SizeMedRegion, 2, SizeMedRegion},
		{"65537->bucket3", SizeMedRegion + 1, 3, SizeMaxRegion},
		{"262144->bucket3", SizeMaxRegion, 3, SizeMaxRegion},
		{"262145->bucket4", SizeMaxRegion + 1, 4, SizeFrame},
		{"1048576->bucket4", SizeFrame, 4, SizeFrame},
		{"2097152->bucket4", 2 * SizeFrame, 4, SizeFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := bucketIndex(tt.size)
			if idx != tt.wantBucket {
				t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, idx, tt.wantBucket)
			}
		})
	}
}

func TestReuse(t *testing.T) {
	// Verify that after Put + GC, a subsequent Get can still provide a
	// valid buffer (sync.Pool may or may not retain entries across GC).
	const size = SizeSmallRegion
	b := Get(size)
	if len(b) != size {
		t.Fatalf("Get(%d): len = %d", size, len(b))
	}

	sentinel := byte(0xAB)
	b[0] = sentinel
	b[size-1] = sentinel

	savedCap := cap(b)
	Put(b)

	runtime.GC()

	b2 := Get(size)
	if len(b2) != size {
		t.Fatalf("Get(%d) after reuse: len = %d", size, len(b2))
	}
	if cap(b2) < savedCap {
		if cap(b2) < SizeSmallRegion {
			t.Errorf("Get(%d) after reuse: cap = %d, want >= %d", size, cap(b2), SizeSmallRegion)
		}
	}
	Put(b2)

	for i := 0; i < 10; i++ {
		buf := Get(size)
		if len(buf) != size {
			t.Errorf("cycle %d: Get(%d) len = %d", i, size, len(buf))
		}
		Put(buf)
	}
}

func TestGet_ZeroSize(t *testing.T) {
	b := Get(0)
	if len(b) != 0 {
		t.Errorf("Get(0): len = %d, want 0", len(b))
	}
	Put(b)
}

func TestPut_NilSlice(t *testing.T) {
	// Putting a nil slice should not panic (cap is 0, which is < SizeOp).
	Put(nil)
}

func BenchmarkGet(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"op", SizeOp},
		{"small-region", SizeSmallRegion},
		{"med-region", SizeMedRegion},
		{"frame", SizeFrame},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf := Get(bm.size)
				Put(buf)
			}
		})
	}
}

func BenchmarkGetParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := Get(SizeSmallRegion)
			Put(buf)
		}
	})
}
