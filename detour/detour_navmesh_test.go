package detour

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tilednav/common"
)

// twoQuadTileData builds a single 20x10 tile holding two walkable quads
// that share the edge at x=10.
//
//	z=10 +----+----+
//	     | p0 | p1 |
//	 z=0 +----+----+
//	    x=0  x=10 x=20
func twoQuadTileData() *NavMeshData {
	verts := []float32{
		0, 0, 0,
		0, 0, 10,
		10, 0, 10,
		10, 0, 0,
		20, 0, 0,
		20, 0, 10,
	}

	polys := make([]DtPoly, 2)
	polys[0].Verts = [DT_VERTS_PER_POLYGON]uint16{0, 1, 2, 3}
	polys[0].Neis = [DT_VERTS_PER_POLYGON]uint16{0, 0, 2, 0}
	polys[0].Flags = 1
	polys[0].VertCount = 4
	polys[0].SetArea(0)
	polys[0].SetType(DT_POLYTYPE_GROUND)

	polys[1].Verts = [DT_VERTS_PER_POLYGON]uint16{3, 2, 5, 4}
	polys[1].Neis = [DT_VERTS_PER_POLYGON]uint16{1, 0, 0, 0}
	polys[1].Flags = 1
	polys[1].VertCount = 4
	polys[1].SetArea(0)
	polys[1].SetType(DT_POLYTYPE_GROUND)

	header := &DtMeshHeader{
		Magic:          DT_NAVMESH_MAGIC,
		Version:        DT_NAVMESH_VERSION,
		PolyCount:      2,
		VertCount:      6,
		MaxLinkCount:   8,
		OffMeshBase:    2,
		WalkableHeight: 2,
		WalkableRadius: 0.6,
		WalkableClimb:  0.9,
		Bmin:           common.Vec3{0, 0, 0},
		Bmax:           common.Vec3{20, 1, 10},
		BvQuantFactor:  1,
	}

	return &NavMeshData{
		Header:   header,
		NavVerts: verts,
		NavPolys: polys,
		Links:    make([]DtLink, header.MaxLinkCount),
	}
}

func twoQuadParams() *NavMeshParams {
	return &NavMeshParams{
		Orig:       common.Vec3{0, 0, 0},
		TileWidth:  20,
		TileHeight: 10,
		MaxTiles:   4,
		MaxPolys:   16,
	}
}

// quadTileData builds a 10x10 tile holding one walkable quad at grid
// column tx. Its x borders carry portal edges so adjacent tiles stitch.
func quadTileData(tx int32) *NavMeshData {
	x0 := float32(tx) * 10
	verts := []float32{
		x0, 0, 0,
		x0, 0, 10,
		x0 + 10, 0, 10,
		x0 + 10, 0, 0,
	}

	polys := make([]DtPoly, 1)
	polys[0].Verts = [DT_VERTS_PER_POLYGON]uint16{0, 1, 2, 3}
	polys[0].Neis = [DT_VERTS_PER_POLYGON]uint16{DT_EXT_LINK | 4, 0, DT_EXT_LINK | 0, 0}
	polys[0].Flags = 1
	polys[0].VertCount = 4
	polys[0].SetArea(0)
	polys[0].SetType(DT_POLYTYPE_GROUND)

	header := &DtMeshHeader{
		Magic:          DT_NAVMESH_MAGIC,
		Version:        DT_NAVMESH_VERSION,
		X:              tx,
		PolyCount:      1,
		VertCount:      4,
		MaxLinkCount:   4,
		OffMeshBase:    1,
		WalkableHeight: 2,
		WalkableRadius: 0.6,
		WalkableClimb:  0.9,
		Bmin:           common.Vec3{x0, 0, 0},
		Bmax:           common.Vec3{x0 + 10, 1, 10},
		BvQuantFactor:  1,
	}

	return &NavMeshData{
		Header:   header,
		NavVerts: verts,
		NavPolys: polys,
		Links:    make([]DtLink, header.MaxLinkCount),
	}
}

func quadGridParams() *NavMeshParams {
	return &NavMeshParams{
		Orig:       common.Vec3{0, 0, 0},
		TileWidth:  10,
		TileHeight: 10,
		MaxTiles:   8,
		MaxPolys:   16,
	}
}

// offMeshTileData builds a 30x10 tile with two walkable quads separated
// by a gap, joined only by a bidirectional off-mesh connection from
// (5,0,5) to (25,0,5).
func offMeshTileData() *NavMeshData {
	verts := []float32{
		0, 0, 0,
		0, 0, 10,
		10, 0, 10,
		10, 0, 0,
		20, 0, 0,
		20, 0, 10,
		30, 0, 10,
		30, 0, 0,
		// Off-mesh connection endpoints, rewritten on add.
		5, 0, 5,
		25, 0, 5,
	}

	polys := make([]DtPoly, 3)
	polys[0].Verts = [DT_VERTS_PER_POLYGON]uint16{0, 1, 2, 3}
	polys[0].Flags = 1
	polys[0].VertCount = 4
	polys[0].SetArea(0)
	polys[0].SetType(DT_POLYTYPE_GROUND)

	polys[1].Verts = [DT_VERTS_PER_POLYGON]uint16{4, 5, 6, 7}
	polys[1].Flags = 1
	polys[1].VertCount = 4
	polys[1].SetArea(0)
	polys[1].SetType(DT_POLYTYPE_GROUND)

	polys[2].Verts = [DT_VERTS_PER_POLYGON]uint16{8, 9}
	polys[2].Flags = 1
	polys[2].VertCount = 2
	polys[2].SetArea(0)
	polys[2].SetType(DT_POLYTYPE_OFFMESH_CONNECTION)

	cons := []DtOffMeshConnection{{
		Pos:    [6]float32{5, 0, 5, 25, 0, 5},
		Rad:    1,
		Poly:   2,
		Flags:  DT_OFFMESH_CON_BIDIR,
		Side:   0xff,
		UserId: 1,
	}}

	header := &DtMeshHeader{
		Magic:           DT_NAVMESH_MAGIC,
		Version:         DT_NAVMESH_VERSION,
		PolyCount:       3,
		VertCount:       10,
		MaxLinkCount:    8,
		OffMeshConCount: 1,
		OffMeshBase:     2,
		WalkableHeight:  2,
		WalkableRadius:  0.6,
		WalkableClimb:   0.9,
		Bmin:            common.Vec3{0, 0, 0},
		Bmax:            common.Vec3{30, 1, 10},
		BvQuantFactor:   1,
	}

	return &NavMeshData{
		Header:      header,
		NavVerts:    verts,
		NavPolys:    polys,
		OffMeshCons: cons,
		Links:       make([]DtLink, header.MaxLinkCount),
	}
}

func offMeshParams() *NavMeshParams {
	return &NavMeshParams{
		Orig:       common.Vec3{0, 0, 0},
		TileWidth:  30,
		TileHeight: 10,
		MaxTiles:   4,
		MaxPolys:   16,
	}
}

func TestNewNavMeshParamValidation(t *testing.T) {
	_, status := NewDtNavMeshWithParams(&NavMeshParams{MaxTiles: 0, MaxPolys: 16})
	require.True(t, status.DtStatusFailed())

	_, status = NewDtNavMeshWithParams(&NavMeshParams{MaxTiles: 4, MaxPolys: 0})
	require.True(t, status.DtStatusFailed())

	mesh, status := NewDtNavMeshWithParams(twoQuadParams())
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, int32(4), mesh.GetMaxTiles())
}

func TestPolyRefEncoding(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())

	ref := mesh.EncodePolyId(7, 3, 12)
	salt, it, ip := mesh.DecodePolyId(ref)
	require.Equal(t, uint32(7), salt)
	require.Equal(t, uint32(3), it)
	require.Equal(t, uint32(12), ip)
	require.Equal(t, uint32(7), mesh.DecodePolyIdSalt(ref))
	require.Equal(t, uint32(3), mesh.DecodePolyIdTile(ref))
	require.Equal(t, uint32(12), mesh.DecodePolyIdPoly(ref))

	// Fields do not bleed into each other at their maximums.
	maxSalt := uint32(1)<<DT_SALT_BITS - 1
	maxTile := uint32(1)<<DT_TILE_BITS - 1
	maxPoly := uint32(1)<<DT_POLY_BITS - 1
	ref = mesh.EncodePolyId(maxSalt, maxTile, maxPoly)
	salt, it, ip = mesh.DecodePolyId(ref)
	require.Equal(t, maxSalt, salt)
	require.Equal(t, maxTile, it)
	require.Equal(t, maxPoly, ip)
}

func TestAddTileAndLookup(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())
	mesh.SetLogger(zaptest.NewLogger(t))

	tileRef, status := mesh.AddTile(twoQuadTileData(), 0, 0)
	require.True(t, status.DtStatusSucceed())
	require.NotZero(t, tileRef)

	tile := mesh.GetTileAt(0, 0, 0)
	require.NotNil(t, tile)
	require.Equal(t, tileRef, mesh.GetTileRef(tile))
	require.Equal(t, tileRef, mesh.GetTileRefAt(0, 0, 0))
	require.Same(t, tile, mesh.GetTileByRef(tileRef))
	require.Nil(t, mesh.GetTileAt(1, 0, 0))

	// Internal adjacency was linked both ways.
	base := mesh.GetPolyRefBase(tile)
	p0 := base | 0
	p1 := base | 1
	require.True(t, mesh.IsValidPolyRef(p0))
	require.True(t, mesh.IsValidPolyRef(p1))

	foundNei := func(from, to DtPolyRef) bool {
		_, poly, status := mesh.GetTileAndPolyByRef(from)
		require.True(t, status.DtStatusSucceed())
		for i := poly.FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
			if tile.Links[i].Ref == to {
				return true
			}
		}
		return false
	}
	require.True(t, foundNei(p0, p1))
	require.True(t, foundNei(p1, p0))
}

func TestAddTileRejectsBadData(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())

	bad := twoQuadTileData()
	bad.Header.Magic = 0
	_, status := mesh.AddTile(bad, 0, 0)
	require.True(t, status.DtStatusFailed())
	require.True(t, status.DtStatusDetail(DT_WRONG_MAGIC))

	bad = twoQuadTileData()
	bad.Header.Version = DT_NAVMESH_VERSION + 1
	_, status = mesh.AddTile(bad, 0, 0)
	require.True(t, status.DtStatusDetail(DT_WRONG_VERSION))

	bad = twoQuadTileData()
	bad.NavVerts = bad.NavVerts[:3]
	_, status = mesh.AddTile(bad, 0, 0)
	require.True(t, status.DtStatusDetail(DT_INVALID_PARAM))

	// Nothing was mutated by the failed adds.
	require.Nil(t, mesh.GetTileAt(0, 0, 0))

	_, status = mesh.AddTile(twoQuadTileData(), 0, 0)
	require.True(t, status.DtStatusSucceed())

	// Same grid location and layer is occupied now.
	_, status = mesh.AddTile(twoQuadTileData(), 0, 0)
	require.True(t, status.DtStatusFailed())
	require.True(t, status.DtStatusDetail(DT_ALREADY_OCCUPIED))
}

func TestRemoveTileInvalidatesRefs(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())

	data := twoQuadTileData()
	tileRef, _ := mesh.AddTile(data, 0, 0)
	polyRef := mesh.GetPolyRefBase(mesh.GetTileByRef(tileRef))
	require.True(t, mesh.IsValidPolyRef(polyRef))

	removed, status := mesh.RemoveTile(tileRef)
	require.True(t, status.DtStatusSucceed())
	require.Same(t, data, removed)

	// Old references are stale now.
	require.False(t, mesh.IsValidPolyRef(polyRef))
	require.Nil(t, mesh.GetTileByRef(tileRef))
	_, _, st := mesh.GetTileAndPolyByRef(polyRef)
	require.True(t, st.DtStatusFailed())

	// Removing twice fails cleanly.
	_, status = mesh.RemoveTile(tileRef)
	require.True(t, status.DtStatusFailed())

	// Re-adding without lastRef bumps the salt, so the old ref stays stale.
	newRef, status := mesh.AddTile(removed, 0, 0)
	require.True(t, status.DtStatusSucceed())
	require.NotEqual(t, tileRef, newRef)
	require.False(t, mesh.IsValidPolyRef(polyRef))
}

func TestAddTileRestoresLastRef(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())

	tileRef, _ := mesh.AddTile(twoQuadTileData(), 0, 0)
	polyRef := mesh.GetPolyRefBase(mesh.GetTileByRef(tileRef))

	data, status := mesh.RemoveTile(tileRef)
	require.True(t, status.DtStatusSucceed())

	restored, status := mesh.AddTile(data, 0, tileRef)
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, tileRef, restored)

	// References minted before the reload stay valid.
	require.True(t, mesh.IsValidPolyRef(polyRef))
}

// AddTile keeps ownership of the data when asked to, so RemoveTile must
// not hand it back.
func TestRemoveTileOwnedData(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())
	tileRef, _ := mesh.AddTile(twoQuadTileData(), DT_TILE_FREE_DATA, 0)

	data, status := mesh.RemoveTile(tileRef)
	require.True(t, status.DtStatusSucceed())
	require.Nil(t, data)
}

func TestCrossTileStitching(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(quadGridParams())

	refA, status := mesh.AddTile(quadTileData(0), 0, 0)
	require.True(t, status.DtStatusSucceed())
	refB, status := mesh.AddTile(quadTileData(1), 0, 0)
	require.True(t, status.DtStatusSucceed())

	tileA := mesh.GetTileByRef(refA)
	tileB := mesh.GetTileByRef(refB)
	polyA := mesh.GetPolyRefBase(tileA)
	polyB := mesh.GetPolyRefBase(tileB)

	hasLink := func(tile *DtMeshTile, to DtPolyRef) bool {
		for i := tile.Polys[0].FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
			if tile.Links[i].Ref == to {
				return true
			}
		}
		return false
	}
	require.True(t, hasLink(tileA, polyB))
	require.True(t, hasLink(tileB, polyA))

	// Removing B unstitches A.
	_, status = mesh.RemoveTile(refB)
	require.True(t, status.DtStatusSucceed())
	require.False(t, hasLink(tileA, polyB))
	require.True(t, mesh.IsValidPolyRef(polyA))
}

func TestCalcTileLoc(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(quadGridParams())

	x, y := mesh.CalcTileLoc(common.Vec3{5, 0, 5})
	require.Equal(t, int32(0), x)
	require.Equal(t, int32(0), y)

	x, y = mesh.CalcTileLoc(common.Vec3{15, 0, 25})
	require.Equal(t, int32(1), x)
	require.Equal(t, int32(2), y)

	x, y = mesh.CalcTileLoc(common.Vec3{-1, 0, -1})
	require.Equal(t, int32(-1), x)
	require.Equal(t, int32(-1), y)
}

func TestPolyFlagsAndArea(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())
	tileRef, _ := mesh.AddTile(twoQuadTileData(), 0, 0)
	ref := mesh.GetPolyRefBase(mesh.GetTileByRef(tileRef))

	require.True(t, mesh.SetPolyFlags(ref, 0x0004).DtStatusSucceed())
	flags, status := mesh.GetPolyFlags(ref)
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, uint16(0x0004), flags)

	require.True(t, mesh.SetPolyArea(ref, 5).DtStatusSucceed())
	area, status := mesh.GetPolyArea(ref)
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, uint8(5), area)

	_, status = mesh.GetPolyFlags(0)
	require.True(t, status.DtStatusFailed())
}

func TestOffMeshConnectionEndPoints(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(offMeshParams())
	tileRef, status := mesh.AddTile(offMeshTileData(), 0, 0)
	require.True(t, status.DtStatusSucceed())

	base := mesh.GetPolyRefBase(mesh.GetTileByRef(tileRef))
	ground := base | 0
	con := base | 2

	start, end, status := mesh.GetOffMeshConnectionPolyEndPoints(ground, con)
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, common.Vec3{5, 0, 5}, start)
	require.Equal(t, common.Vec3{25, 0, 5}, end)

	// Entering from the far side swaps the endpoints.
	start, end, status = mesh.GetOffMeshConnectionPolyEndPoints(base|1, con)
	require.True(t, status.DtStatusSucceed())
	require.Equal(t, common.Vec3{25, 0, 5}, start)
	require.Equal(t, common.Vec3{5, 0, 5}, end)

	require.NotNil(t, mesh.GetOffMeshConnectionByRef(con))
	require.Nil(t, mesh.GetOffMeshConnectionByRef(ground))

	// Ground polygons are not off-mesh connections.
	_, _, status = mesh.GetOffMeshConnectionPolyEndPoints(con, ground)
	require.True(t, status.DtStatusFailed())
}

func TestTileCodecRoundTrip(t *testing.T) {
	orig := twoQuadTileData()
	blob := orig.ToBin()

	var parsed NavMeshData
	require.NoError(t, parsed.FromBin(blob))

	require.Equal(t, *orig.Header, *parsed.Header)
	require.Equal(t, orig.NavVerts, parsed.NavVerts)
	require.Equal(t, orig.NavPolys, parsed.NavPolys)
	require.Len(t, parsed.Links, int(orig.Header.MaxLinkCount))

	// A parsed tile is usable directly.
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())
	_, status := mesh.AddTile(&parsed, 0, 0)
	require.True(t, status.DtStatusSucceed())
}

func TestTileCodecRejectsMalformed(t *testing.T) {
	blob := twoQuadTileData().ToBin()

	// Corrupt magic.
	corrupt := append([]byte(nil), blob...)
	corrupt[0] = 0
	var d NavMeshData
	err := d.FromBin(corrupt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong magic")

	// Truncated payload.
	err = d.FromBin(blob[:len(blob)-7])
	require.Error(t, err)

	// Truncated header.
	err = d.FromBin(blob[:10])
	require.Error(t, err)
}

func TestTileCodecRejectsOversizedCounts(t *testing.T) {
	blob := twoQuadTileData().ToBin()
	const (
		polyCountOff = 24
		vertCountOff = 28
	)

	// A vert count whose byte size wraps 32-bit arithmetic must be
	// rejected, not trip the allocator.
	corrupt := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(corrupt[vertCountOff:], 0x40000000)
	var d NavMeshData
	err := d.FromBin(corrupt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid parameter")

	// A large-but-positive count claims more section bytes than the blob
	// holds; nothing may be allocated for it.
	corrupt = append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(corrupt[polyCountOff:], 10_000_000)
	err = d.FromBin(corrupt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid parameter")
	require.Empty(t, d.NavPolys)
}

func TestSingleTileConstructor(t *testing.T) {
	mesh, tileRef, status := NewDtNavMesh(twoQuadTileData(), 0)
	require.True(t, status.DtStatusSucceed())
	require.NotZero(t, tileRef)
	require.NotNil(t, mesh.GetTileAt(0, 0, 0))
}

func TestDestroyInvalidatesReferences(t *testing.T) {
	mesh, _ := NewDtNavMeshWithParams(twoQuadParams())
	tileRef, status := mesh.AddTile(twoQuadTileData(), DT_TILE_FREE_DATA, 0)
	require.True(t, status.DtStatusSucceed())

	ref := mesh.GetPolyRefBase(mesh.GetTileByRef(tileRef))
	require.True(t, mesh.IsValidPolyRef(ref))

	mesh.Destroy()
	require.False(t, mesh.IsValidPolyRef(ref))
	require.Equal(t, int32(0), mesh.GetMaxTiles())
}
