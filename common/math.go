package common

import "math"

// Returns the square of the value.
func Sqr[T IT](a T) T { return a * a }

// Returns the absolute value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

func Min[T IT](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T IT](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamps the value to the specified range.
func Clamp[T IT](v, mn, mx T) T {
	if v < mn {
		return mn
	}
	if v > mx {
		return mx
	}
	return v
}

// Performs a linear interpolation between two points. (v1 toward v2)
func Vlerp(v1, v2 Vec3, t float32) Vec3 {
	return Vec3{
		v1[0] + (v2[0]-v1[0])*t,
		v1[1] + (v2[1]-v1[1])*t,
		v1[2] + (v2[2]-v1[2])*t,
	}
}

// Returns the distance between two points.
func Vdist(v1, v2 Vec3) float32 {
	return v2.Sub(v1).Len()
}

// Returns the square of the distance between two points.
func VdistSqr(v1, v2 Vec3) float32 {
	d := v2.Sub(v1)
	return d.Dot(d)
}

// Derives the distance between two points on the xz-plane.
func Vdist2D(v1, v2 Vec3) float32 {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return float32(math.Sqrt(float64(dx*dx + dz*dz)))
}

// Derives the square of the distance between two points on the xz-plane.
func Vdist2DSqr(v1, v2 Vec3) float32 {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return dx*dx + dz*dz
}

// Derives the dot product of two vectors on the xz-plane. (u . v)
func Vdot2D(u, v Vec3) float32 {
	return u[0]*v[0] + u[2]*v[2]
}

// Derives the xz-plane 2D perp product of the two vectors. (u x v)
func Vperp2D(u, v Vec3) float32 {
	return u[2]*v[0] - u[0]*v[2]
}

// Performs a 'sloppy' colocation check of the specified points. Two points
// closer than 1/16384 of a unit are considered colocated.
func Vequal(p0, p1 Vec3) bool {
	thr := Sqr(float32(1.0) / 16384.0)
	return VdistSqr(p0, p1) < thr
}

// True if all components are finite (not NaN or +/-Inf).
func Visfinite(v Vec3) bool {
	for i := 0; i < 3; i++ {
		f := float64(v[i])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// True if the xz components are finite.
func Visfinite2D(v Vec3) bool {
	for _, i := range []int{0, 2} {
		f := float64(v[i])
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Selects the component-wise minimum into mn.
func Vmin(mn *Vec3, v Vec3) {
	mn[0] = Min(mn[0], v[0])
	mn[1] = Min(mn[1], v[1])
	mn[2] = Min(mn[2], v[2])
}

// Selects the component-wise maximum into mx.
func Vmax(mx *Vec3, v Vec3) {
	mx[0] = Max(mx[0], v[0])
	mx[1] = Max(mx[1], v[1])
	mx[2] = Max(mx[2], v[2])
}

// Derives the signed xz-plane area of the triangle ABC, or the
// relationship of line AB to point C.
func TriArea2D(a, b, c Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return acx*abz - abx*acz
}

// Determines if two axis-aligned bounding boxes overlap.
func OverlapBounds(amin, amax, bmin, bmax Vec3) bool {
	overlap := true
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		overlap = false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		overlap = false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		overlap = false
	}
	return overlap
}

// Determines if two quantized axis-aligned bounding boxes overlap.
func OverlapQuantBounds(amin, amax, bmin, bmax [3]uint16) bool {
	overlap := true
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		overlap = false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		overlap = false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		overlap = false
	}
	return overlap
}

// Returns the closest parameter along segment pq to point pt and the
// squared xz-plane distance to it.
func DistancePtSegSqr2D(pt, p, q Vec3) (t, dist float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return t, dx*dx + dz*dz
}

// Derives the y-axis height of the closest point on the triangle abc to
// the specified reference point, using scaled barycentric coordinates.
func ClosestHeightPointTriangle(p, a, b, c Vec3) (h float32, ok bool) {
	const eps = 1e-6
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	denom := v0[0]*v1[2] - v0[2]*v1[0]
	if Abs(denom) < eps {
		return 0, false
	}

	u := v1[2]*v2[0] - v1[0]*v2[2]
	v := v0[0]*v2[2] - v0[2]*v2[0]
	if denom < 0 {
		denom = -denom
		u = -u
		v = -v
	}

	// If the point lies inside the triangle, return the interpolated y.
	if u >= 0 && v >= 0 && (u+v) <= denom {
		return a[1] + (v0[1]*u+v1[1]*v)/denom, true
	}
	return 0, false
}

// All points are projected onto the xz-plane, so the y-values are ignored.
func PointInPolygon(pt Vec3, verts []float32, nverts int) bool {
	c := false
	j := nverts - 1
	for i := 0; i < nverts; i++ {
		vi := GetVec3(verts, i)
		vj := GetVec3(verts, j)
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		j = i
	}
	return c
}

// Reports whether pt is inside the polygon and fills the per-edge squared
// distances and edge parameters.
func DistancePtPolyEdgesSqr(pt Vec3, verts []float32, nverts int, ed, et []float32) bool {
	c := false
	j := nverts - 1
	for i := 0; i < nverts; i++ {
		vi := GetVec3(verts, i)
		vj := GetVec3(verts, j)
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		et[j], ed[j] = DistancePtSegSqr2D(pt, vj, vi)
		j = i
	}
	return c
}

// Intersects two segments on the xz-plane; s is the parameter along ap-aq,
// t along bp-bq.
func IntersectSegSeg2D(ap, aq, bp, bq Vec3) (s, t float32, ok bool) {
	u := aq.Sub(ap)
	v := bq.Sub(bp)
	w := ap.Sub(bp)
	d := Vperp2D(u, v)
	if Abs(d) < 1e-6 {
		return 0, 0, false
	}
	return Vperp2D(v, w) / d, Vperp2D(u, w) / d, true
}

func NextPow2(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

func Ilog2(v uint32) uint32 {
	var r, shift uint32
	r = boolToUInt32(v > 0xffff) << 4
	v >>= r
	shift = boolToUInt32(v > 0xff) << 3
	v >>= shift
	r |= shift
	shift = boolToUInt32(v > 0xf) << 2
	v >>= shift
	r |= shift
	shift = boolToUInt32(v > 0x3) << 1
	v >>= shift
	r |= shift
	r |= v >> 1
	return r
}

func boolToUInt32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Computes the tile hash lookup bucket for a grid coordinate.
func ComputeTileHash(x, y, mask int32) int32 {
	h1 := uint32(0x8da6b343) // Large multiplicative constants;
	h2 := uint32(0xd8163841) // here arbitrarily chosen primes
	n := h1*uint32(x) + h2*uint32(y)
	return int32(n & uint32(mask))
}
