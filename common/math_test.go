package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriArea2D(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 0, 0}
	c := Vec3{0, 0, 10}

	area := TriArea2D(a, b, c)
	require.Equal(t, float32(100), Abs(area))
	// Swapping two vertices flips the sign.
	require.Equal(t, -area, TriArea2D(a, c, b))
	// Collinear points span no area.
	require.Equal(t, float32(0), TriArea2D(a, b, Vec3{20, 0, 0}))
}

func TestDistancePtSegSqr2D(t *testing.T) {
	p := Vec3{0, 0, 0}
	q := Vec3{10, 0, 0}

	tt, d := DistancePtSegSqr2D(Vec3{5, 0, 3}, p, q)
	require.Equal(t, float32(0.5), tt)
	require.Equal(t, float32(9), d)

	// Beyond the segment end the parameter clamps.
	tt, d = DistancePtSegSqr2D(Vec3{15, 0, 0}, p, q)
	require.Equal(t, float32(1), tt)
	require.Equal(t, float32(25), d)

	// The y component is ignored.
	_, d = DistancePtSegSqr2D(Vec3{5, 100, 0}, p, q)
	require.Equal(t, float32(0), d)
}

func TestPointInPolygon(t *testing.T) {
	quad := []float32{
		0, 0, 0,
		0, 0, 10,
		10, 0, 10,
		10, 0, 0,
	}

	require.True(t, PointInPolygon(Vec3{5, 0, 5}, quad, 4))
	require.True(t, PointInPolygon(Vec3{5, 42, 5}, quad, 4))
	require.False(t, PointInPolygon(Vec3{15, 0, 5}, quad, 4))
	require.False(t, PointInPolygon(Vec3{-1, 0, 5}, quad, 4))
}

func TestClosestHeightPointTriangle(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 10, 0}
	c := Vec3{0, 0, 10}

	h, ok := ClosestHeightPointTriangle(Vec3{5, 0, 2}, a, b, c)
	require.True(t, ok)
	require.InDelta(t, 5.0, h, 1e-4)

	// Outside the triangle.
	_, ok = ClosestHeightPointTriangle(Vec3{20, 0, 20}, a, b, c)
	require.False(t, ok)

	// Degenerate triangle.
	_, ok = ClosestHeightPointTriangle(Vec3{1, 0, 0}, a, a, a)
	require.False(t, ok)
}

func TestVecHelpers(t *testing.T) {
	require.True(t, Vequal(Vec3{1, 2, 3}, Vec3{1, 2, 3}))
	require.False(t, Vequal(Vec3{1, 2, 3}, Vec3{1, 2, 3.1}))

	require.Equal(t, float32(5), Vdist2D(Vec3{0, 7, 0}, Vec3{3, 0, 4}))
	require.Equal(t, float32(25), Vdist2DSqr(Vec3{0, 7, 0}, Vec3{3, 0, 4}))
	require.Equal(t, float32(11), Vdot2D(Vec3{1, 100, 2}, Vec3{3, 100, 4}))
	require.Equal(t, Vec3{5, 5, 5}, Vlerp(Vec3{0, 0, 0}, Vec3{10, 10, 10}, 0.5))

	mn := Vec3{5, 5, 5}
	mx := Vec3{5, 5, 5}
	Vmin(&mn, Vec3{1, 9, 5})
	Vmax(&mx, Vec3{1, 9, 5})
	require.Equal(t, Vec3{1, 5, 5}, mn)
	require.Equal(t, Vec3{5, 9, 5}, mx)
}

func TestNextPow2(t *testing.T) {
	require.Equal(t, uint32(1), NextPow2(1))
	require.Equal(t, uint32(4), NextPow2(3))
	require.Equal(t, uint32(64), NextPow2(33))
	require.Equal(t, uint32(64), NextPow2(64))
}

func TestIlog2(t *testing.T) {
	require.Equal(t, uint32(0), Ilog2(1))
	require.Equal(t, uint32(1), Ilog2(2))
	require.Equal(t, uint32(5), Ilog2(63))
	require.Equal(t, uint32(6), Ilog2(64))
	require.Equal(t, uint32(31), Ilog2(0x80000000))
}

func TestComputeTileHash(t *testing.T) {
	const mask = 63
	h := ComputeTileHash(3, 7, mask)
	require.Equal(t, h, ComputeTileHash(3, 7, mask))
	require.GreaterOrEqual(t, h, int32(0))
	require.LessOrEqual(t, h, int32(mask))

	// Negative grid coordinates still land in range.
	h = ComputeTileHash(-5, -9, mask)
	require.GreaterOrEqual(t, h, int32(0))
	require.LessOrEqual(t, h, int32(mask))
}

func TestOverlapQuantBounds(t *testing.T) {
	amin := [3]uint16{0, 0, 0}
	amax := [3]uint16{10, 10, 10}
	require.True(t, OverlapQuantBounds(amin, amax, [3]uint16{5, 5, 5}, [3]uint16{15, 15, 15}))
	require.False(t, OverlapQuantBounds(amin, amax, [3]uint16{11, 0, 0}, [3]uint16{20, 10, 10}))
}

func TestIntersectSegSeg2D(t *testing.T) {
	s, tt, ok := IntersectSegSeg2D(Vec3{0, 0, 0}, Vec3{10, 0, 0}, Vec3{5, 0, -5}, Vec3{5, 0, 5})
	require.True(t, ok)
	require.Equal(t, float32(0.5), s)
	require.Equal(t, float32(0.5), tt)

	// Parallel segments do not intersect.
	_, _, ok = IntersectSegSeg2D(Vec3{0, 0, 0}, Vec3{10, 0, 0}, Vec3{0, 0, 1}, Vec3{10, 0, 1})
	require.False(t, ok)
}
