package imageview

import "testing"

func TestMemoryAccountantAddSubPressure(t *testing.T) {
	a := NewMemoryAccountant(1000)
	a.Add(10, 10) // 400 bytes
	if a.Bytes() != 400 {
		t.Fatalf("Bytes() = %d, want 400", a.Bytes())
	}
	if got := a.PressureRatio(); got != 0.4 {
		t.Fatalf("PressureRatio() = %v, want 0.4", got)
	}
	a.Sub(10, 10)
	if a.Bytes() != 0 {
		t.Fatalf("Bytes() after Sub = %d, want 0", a.Bytes())
	}
}

func TestMemoryAccountantZeroBudgetPressure(t *testing.T) {
	a := NewMemoryAccountant(0)
	if got := a.PressureRatio(); got != 0 {
		t.Fatalf("PressureRatio() with zero budget = %v, want 0", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 255: 256, 256: 256, 257: 512}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTexturePoolAcquireReleaseAccounting(t *testing.T) {
	a := NewMemoryAccountant(10_000_000)
	pool := newTexturePool(a)

	tex := pool.acquire(100, 50)
	if tex.w != 100 || tex.h != 50 {
		t.Fatalf("acquired texture size = %dx%d, want 100x50", tex.w, tex.h)
	}
	if a.Bytes() != 100*50*4 {
		t.Fatalf("Bytes() = %d, want %d", a.Bytes(), 100*50*4)
	}

	pool.release(tex)
	if a.Bytes() != 0 {
		t.Fatalf("Bytes() after release = %d, want 0", a.Bytes())
	}
}

func TestTexturePoolReusesBucketedImage(t *testing.T) {
	a := NewMemoryAccountant(10_000_000)
	pool := newTexturePool(a)

	first := pool.acquire(64, 64)
	backing := first.image
	pool.release(first)

	second := pool.acquire(64, 64)
	if second.image.Bounds() != backing.Bounds() {
		t.Fatalf("expected the reused texture to share bucket dimensions")
	}
	if len(pool.buckets[poolKey(64, 64)]) != 0 {
		t.Fatalf("expected the bucket to be drained after reuse, got %d idle", len(pool.buckets[poolKey(64, 64)]))
	}
}
