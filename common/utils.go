package common

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is the position type used throughout the engine. All navigation
// happens on the xz-plane with y up.
type Vec3 = mgl32.Vec3

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// GetVec3 reads the i-th vertex of a flat float32 array as a Vec3.
func GetVec3[T IIndex](verts []float32, index T) Vec3 {
	return Vec3{verts[index*3], verts[index*3+1], verts[index*3+2]}
}

// SetVec3 stores v as the i-th vertex of a flat float32 array.
func SetVec3[T IIndex](verts []float32, index T, v Vec3) {
	copy(verts[index*3:index*3+3], v[:])
}

func AssertTrue(ok bool) {
	if !ok {
		panic("assertion failed")
	}
}
