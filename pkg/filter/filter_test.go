package filter

import (
	"testing"

	"irisrec/pkg/imgbuf"

	"gonum.org/v1/gonum/mat"
)

func TestReflect101(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{2, 5, 2},
		{-3, 1, 0},
		{-7, 3, 1},
	}
	for _, c := range cases {
		if got := Reflect101(c.i, c.n); got != c.want {
			t.Errorf("Reflect101(%d, %d): expected %d, got %d", c.i, c.n, c.want, got)
		}
	}
}

func rampImage(width, height, step int) *imgbuf.Gray {
	g := imgbuf.NewGray(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Set(x, y, uint8(x*step))
		}
	}
	return g
}

func TestFilter2DIsCorrelation(t *testing.T) {
	src := rampImage(6, 4, 10)
	// Single tap right of the anchor: dst(x,y) = src(x+1,y)
	k := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0, 0, 1,
		0, 0, 0,
	})
	dst := Filter2DGray(src, k)
	for x := 0; x < 5; x++ {
		if got, want := dst.At(x, 2), float32(src.At(x+1, 2)); got != want {
			t.Errorf("Column %d: expected %v, got %v", x, want, got)
		}
	}
	// Reflected border: src(6) -> src(4)
	if got := dst.At(5, 0); got != 40 {
		t.Errorf("Expected reflected value 40 at right border, got %v", got)
	}
}

func TestFilter2DEvenKernelAnchor(t *testing.T) {
	src := rampImage(5, 1, 1)
	// 1x2 kernel anchored at column 1: dst(x) = src(x-1) + 2*src(x)
	k := mat.NewDense(1, 2, []float64{1, 2})
	dst := Filter2DGray(src, k)
	if got := dst.At(2, 0); got != 1+2*2 {
		t.Errorf("Expected 5, got %v", got)
	}
	if got := dst.At(0, 0); got != 1 {
		t.Errorf("Expected reflected 1 at left border, got %v", got)
	}
}

func TestSobel(t *testing.T) {
	src := rampImage(8, 8, 10)

	dx := SobelDx(src)
	if got := dx.At(4, 4); got != 80 {
		t.Errorf("Expected horizontal derivative 80, got %v", got)
	}
	if got := dx.At(0, 4); got != 0 {
		t.Errorf("Expected zero derivative at reflected border, got %v", got)
	}

	dy := SobelDy(src)
	for i, v := range dy.Pix {
		if v != 0 {
			t.Fatalf("Expected zero vertical derivative, got %v at %d", v, i)
		}
	}
}

func TestSobelDySign(t *testing.T) {
	// Dark above bright gives a positive response
	g := imgbuf.NewGray(5, 6)
	for y := 3; y < 6; y++ {
		for x := 0; x < 5; x++ {
			g.Set(x, y, 100)
		}
	}
	dy := SobelDy(g)
	if dy.At(2, 2) != 400 || dy.At(2, 3) != 400 {
		t.Errorf("Expected 400 on both sides of the step, got %v and %v", dy.At(2, 2), dy.At(2, 3))
	}
}

func TestKernelTaps(t *testing.T) {
	if n := NewKernel(SobelY).Taps(); n != 6 {
		t.Errorf("Expected 6 non-zero taps, got %d", n)
	}
}
