package detour

import (
	"tilednav/common"
)

// Returns the tile side opposite to the given one.
func dtOppositeTile(side int32) int32 { return (side + 4) & 0x7 }

// Portal edges on tile borders are matched as 1D "slabs": the edge is
// projected onto the border axis and compared against candidate edges of
// the neighbour tile.

func getSlabCoord(v common.Vec3, side int32) float32 {
	if side == 0 || side == 4 {
		return v[0]
	} else if side == 2 || side == 6 {
		return v[2]
	}
	return 0
}

func calcSlabEndPoints(va, vb common.Vec3, side int32) (bmin, bmax [2]float32) {
	if side == 0 || side == 4 {
		if va[2] < vb[2] {
			bmin[0], bmin[1] = va[2], va[1]
			bmax[0], bmax[1] = vb[2], vb[1]
		} else {
			bmin[0], bmin[1] = vb[2], vb[1]
			bmax[0], bmax[1] = va[2], va[1]
		}
	} else if side == 2 || side == 6 {
		if va[0] < vb[0] {
			bmin[0], bmin[1] = va[0], va[1]
			bmax[0], bmax[1] = vb[0], vb[1]
		} else {
			bmin[0], bmin[1] = vb[0], vb[1]
			bmax[0], bmax[1] = va[0], va[1]
		}
	}
	return bmin, bmax
}

func overlapSlabs(amin, amax, bmin, bmax [2]float32, px, py float32) bool {
	// Check for horizontal overlap.
	// The segment is shrunken a little so that slabs which touch
	// at end points are not connected.
	minx := common.Max(amin[0]+px, bmin[0]+px)
	maxx := common.Min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return false
	}

	// Check vertical overlap.
	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ak := amin[1] - ad*amin[0]
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	bk := bmin[1] - bd*bmin[0]
	aminy := ad*minx + ak
	amaxy := ad*maxx + ak
	bminy := bd*minx + bk
	bmaxy := bd*maxx + bk
	dmin := bminy - aminy
	dmax := bmaxy - amaxy

	// Crossing segments always overlap.
	if dmin*dmax < 0 {
		return true
	}

	// Check for overlap at endpoints.
	thr := common.Sqr(py * 2)
	return dmin*dmin <= thr || dmax*dmax <= thr
}
