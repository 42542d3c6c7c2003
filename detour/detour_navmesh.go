package detour

import (
	"math"

	"go.uber.org/zap"

	"tilednav/common"
	"tilednav/common/logger"
)

// DtNavMesh owns the set of loaded navigation tiles, indexed by grid
// coordinate and layer, and issues the salt-protected polygon and tile
// references used by every query.
//
// Concurrency: the tile data is safe for concurrent read-only queries
// from independent DtNavMeshQuery instances. AddTile and RemoveTile
// require exclusive access; callers streaming tiles must serialize
// mutation against in-flight queries (a RW lock discipline). A reference
// held across a remove/re-add is detected as stale via the slot salt.
type DtNavMesh struct {
	m_params                  NavMeshParams ///< Current initialization params.
	m_orig                    common.Vec3   ///< Origin of the tile (0,0)
	m_tileWidth, m_tileHeight float32       ///< Dimensions of each tile.
	m_maxTiles                int32         ///< Max number of tiles.
	m_tileLutSize             int32         ///< Tile hash lookup size (must be pot).
	m_tileLutMask             int32         ///< Tile hash lookup mask.
	m_posLookup               []*DtMeshTile ///< Tile hash lookup.
	m_nextFree                *DtMeshTile   ///< Freelist of tiles.
	m_tiles                   []DtMeshTile  ///< List of tiles.

	log *zap.Logger
}

// NewDtNavMeshWithParams initializes a navigation mesh for tiled use.
func NewDtNavMeshWithParams(params *NavMeshParams) (*DtNavMesh, DtStatus) {
	if params.MaxTiles <= 0 || params.MaxTiles > 1<<DT_TILE_BITS ||
		params.MaxPolys <= 0 || params.MaxPolys > 1<<DT_POLY_BITS {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}

	mesh := &DtNavMesh{
		m_params:     *params,
		m_orig:       params.Orig,
		m_tileWidth:  params.TileWidth,
		m_tileHeight: params.TileHeight,
		m_maxTiles:   params.MaxTiles,
		log:          logger.Nop(),
	}

	mesh.m_tileLutSize = int32(common.NextPow2(uint32(params.MaxTiles) / 4))
	if mesh.m_tileLutSize == 0 {
		mesh.m_tileLutSize = 1
	}
	mesh.m_tileLutMask = mesh.m_tileLutSize - 1

	mesh.m_tiles = make([]DtMeshTile, mesh.m_maxTiles)
	mesh.m_posLookup = make([]*DtMeshTile, mesh.m_tileLutSize)
	for i := mesh.m_maxTiles - 1; i >= 0; i-- {
		mesh.m_tiles[i].salt = 1
		mesh.m_tiles[i].idx = i
		mesh.m_tiles[i].Next = mesh.m_nextFree
		mesh.m_nextFree = &mesh.m_tiles[i]
	}

	return mesh, DT_SUCCESS
}

// NewDtNavMesh initializes a navigation mesh for single tile use.
func NewDtNavMesh(data *NavMeshData, flags int32) (mesh *DtNavMesh, result DtTileRef, status DtStatus) {
	// Make sure the data is in right format.
	header := data.Header
	if header == nil || header.Magic != DT_NAVMESH_MAGIC {
		return nil, 0, DT_FAILURE | DT_WRONG_MAGIC
	}
	if header.Version != DT_NAVMESH_VERSION {
		return nil, 0, DT_FAILURE | DT_WRONG_VERSION
	}

	params := NavMeshParams{
		Orig:       header.Bmin,
		TileWidth:  header.Bmax[0] - header.Bmin[0],
		TileHeight: header.Bmax[2] - header.Bmin[2],
		MaxTiles:   1,
		MaxPolys:   header.PolyCount,
	}

	mesh, status = NewDtNavMeshWithParams(&params)
	if status.DtStatusFailed() {
		return mesh, 0, status
	}
	result, status = mesh.AddTile(data, flags, 0)
	return mesh, result, status
}

// SetLogger routes tile lifecycle logging; nil resets to the no-op logger.
func (mesh *DtNavMesh) SetLogger(l *zap.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	mesh.log = l
}

// GetParams returns the initialization parameters.
func (mesh *DtNavMesh) GetParams() *NavMeshParams { return &mesh.m_params }

func (mesh *DtNavMesh) GetMaxTiles() int32 { return mesh.m_maxTiles }

func (mesh *DtNavMesh) GetTile(i int) *DtMeshTile { return &mesh.m_tiles[i] }

/// @name Encoding and decoding of references.

// EncodePolyId derives a polygon reference from its components.
func (mesh *DtNavMesh) EncodePolyId(salt, it, ip uint32) DtPolyRef {
	return DtPolyRef(uint64(salt)<<(DT_POLY_BITS+DT_TILE_BITS) |
		uint64(it)<<DT_POLY_BITS | uint64(ip))
}

// DecodePolyId splits a polygon reference into salt, tile and poly index.
func (mesh *DtNavMesh) DecodePolyId(ref DtPolyRef) (salt, it, ip uint32) {
	saltMask := uint64(1)<<DT_SALT_BITS - 1
	tileMask := uint64(1)<<DT_TILE_BITS - 1
	polyMask := uint64(1)<<DT_POLY_BITS - 1
	salt = uint32((uint64(ref) >> (DT_POLY_BITS + DT_TILE_BITS)) & saltMask)
	it = uint32((uint64(ref) >> DT_POLY_BITS) & tileMask)
	ip = uint32(uint64(ref) & polyMask)
	return salt, it, ip
}

func (mesh *DtNavMesh) DecodePolyIdSalt(ref DtPolyRef) uint32 {
	saltMask := uint64(1)<<DT_SALT_BITS - 1
	return uint32((uint64(ref) >> (DT_POLY_BITS + DT_TILE_BITS)) & saltMask)
}

func (mesh *DtNavMesh) DecodePolyIdTile(ref DtPolyRef) uint32 {
	tileMask := uint64(1)<<DT_TILE_BITS - 1
	return uint32((uint64(ref) >> DT_POLY_BITS) & tileMask)
}

func (mesh *DtNavMesh) DecodePolyIdPoly(ref DtPolyRef) uint32 {
	polyMask := uint64(1)<<DT_POLY_BITS - 1
	return uint32(uint64(ref) & polyMask)
}

// GetPolyRefBase returns the reference of the tile's polygon 0; polygon i
// of the tile is base|i.
func (mesh *DtNavMesh) GetPolyRefBase(tile *DtMeshTile) DtPolyRef {
	if tile == nil {
		return 0
	}
	return mesh.EncodePolyId(tile.salt, uint32(tile.idx), 0)
}

// GetTileRef returns the reference for the given tile.
func (mesh *DtNavMesh) GetTileRef(tile *DtMeshTile) DtTileRef {
	if tile == nil {
		return 0
	}
	return DtTileRef(mesh.EncodePolyId(tile.salt, uint32(tile.idx), 0))
}

// CalcTileLoc returns the tile grid location covering a world position.
func (mesh *DtNavMesh) CalcTileLoc(pos common.Vec3) (tx, ty int32) {
	tx = int32(math.Floor(float64((pos[0] - mesh.m_orig[0]) / mesh.m_tileWidth)))
	ty = int32(math.Floor(float64((pos[2] - mesh.m_orig[2]) / mesh.m_tileHeight)))
	return tx, ty
}

// GetTileAt returns the tile at the grid location and layer, or nil.
func (mesh *DtNavMesh) GetTileAt(x, y, layer int32) *DtMeshTile {
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	tile := mesh.m_posLookup[h]
	for tile != nil {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y && tile.Header.Layer == layer {
			return tile
		}
		tile = tile.Next
	}
	return nil
}

// GetTilesAt collects all layers at the grid location.
func (mesh *DtNavMesh) GetTilesAt(x, y int32, tiles []*DtMeshTile) int32 {
	n := int32(0)
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	tile := mesh.m_posLookup[h]
	for tile != nil {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y {
			if int(n) < len(tiles) {
				tiles[n] = tile
				n++
			}
		}
		tile = tile.Next
	}
	return n
}

func (mesh *DtNavMesh) getNeighbourTilesAt(x, y, side int32, tiles []*DtMeshTile) int32 {
	nx, ny := x, y
	switch side {
	case 0:
		nx++
	case 1:
		nx++
		ny++
	case 2:
		ny++
	case 3:
		nx--
		ny++
	case 4:
		nx--
	case 5:
		nx--
		ny--
	case 6:
		ny--
	case 7:
		nx++
		ny--
	}
	return mesh.GetTilesAt(nx, ny, tiles)
}

// GetTileRefAt returns the reference of the tile at the grid location and
// layer, or 0 if there is none.
func (mesh *DtNavMesh) GetTileRefAt(x, y, layer int32) DtTileRef {
	return mesh.GetTileRef(mesh.GetTileAt(x, y, layer))
}

// GetTileByRef resolves a tile reference, or nil if it is stale/invalid.
func (mesh *DtNavMesh) GetTileByRef(ref DtTileRef) *DtMeshTile {
	if ref == 0 {
		return nil
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if tileIndex >= uint32(mesh.m_maxTiles) {
		return nil
	}
	tile := &mesh.m_tiles[tileIndex]
	if tile.salt != tileSalt {
		return nil
	}
	return tile
}

// GetTileAndPolyByRef resolves a polygon reference, validating the salt,
// tile and polygon index on every dereference.
func (mesh *DtNavMesh) GetTileAndPolyByRef(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly, status DtStatus) {
	if ref == 0 {
		return nil, nil, DT_FAILURE
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if it >= uint32(mesh.m_maxTiles) {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	t := &mesh.m_tiles[it]
	if t.salt != salt || t.Header == nil {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	if ip >= uint32(t.Header.PolyCount) {
		return nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	return t, &t.Polys[ip], DT_SUCCESS
}

// GetTileAndPolyByRefUnsafe resolves a reference known to be valid. It is
// faster than GetTileAndPolyByRef but performs no validation.
func (mesh *DtNavMesh) GetTileAndPolyByRefUnsafe(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly) {
	_, it, ip := mesh.DecodePolyId(ref)
	return &mesh.m_tiles[it], &mesh.m_tiles[it].Polys[ip]
}

// IsValidPolyRef reports whether the reference points at a currently
// loaded polygon.
func (mesh *DtNavMesh) IsValidPolyRef(ref DtPolyRef) bool {
	if ref == 0 {
		return false
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if it >= uint32(mesh.m_maxTiles) {
		return false
	}
	t := &mesh.m_tiles[it]
	if t.salt != salt || t.Header == nil {
		return false
	}
	return ip < uint32(t.Header.PolyCount)
}

/// @name Link management.

func allocLink(tile *DtMeshTile) uint32 {
	if tile.linksFreeList == DT_NULL_LINK {
		return DT_NULL_LINK
	}
	link := tile.linksFreeList
	tile.linksFreeList = tile.Links[link].Next
	return link
}

func freeLink(tile *DtMeshTile, link uint32) {
	tile.Links[link].Next = tile.linksFreeList
	tile.linksFreeList = link
}

// connectIntLinks builds links for the edges shared between polygons of
// the same tile.
func (mesh *DtNavMesh) connectIntLinks(tile *DtMeshTile) {
	base := mesh.GetPolyRefBase(tile)

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		poly.FirstLink = DT_NULL_LINK

		if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}

		// Build edge links backwards so that the links will be
		// in the linked list from lowest index to highest.
		for j := int32(poly.VertCount) - 1; j >= 0; j-- {
			// Skip hard and non-internal edges.
			if poly.Neis[j] == 0 || (poly.Neis[j]&DT_EXT_LINK) != 0 {
				continue
			}

			idx := allocLink(tile)
			if idx != DT_NULL_LINK {
				link := &tile.Links[idx]
				link.Ref = base | DtPolyRef(poly.Neis[j]-1)
				link.Edge = uint8(j)
				link.Side = 0xff
				link.Bmin = 0
				link.Bmax = 0
				link.Next = poly.FirstLink
				poly.FirstLink = idx
			}
		}
	}
}

// findConnectingPolys collects polygons of the target tile whose border
// edges on the given side overlap the edge va-vb.
func (mesh *DtNavMesh) findConnectingPolys(va, vb common.Vec3, tile *DtMeshTile, side int32, con []DtPolyRef, conarea []float32) int32 {
	if tile == nil {
		return 0
	}

	amin, amax := calcSlabEndPoints(va, vb, side)
	apos := getSlabCoord(va, side)

	m := uint16(DT_EXT_LINK | side)
	n := int32(0)
	base := mesh.GetPolyRefBase(tile)

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		nv := int32(poly.VertCount)
		for j := int32(0); j < nv; j++ {
			// Skip edges which do not point to the right side.
			if poly.Neis[j] != m {
				continue
			}

			vc := common.GetVec3(tile.Verts, poly.Verts[j])
			vd := common.GetVec3(tile.Verts, poly.Verts[(j+1)%nv])
			bpos := getSlabCoord(vc, side)

			// Segments are not close enough.
			if common.Abs(apos-bpos) > 0.01 {
				continue
			}

			// Check if the segments touch.
			bmin, bmax := calcSlabEndPoints(vc, vd, side)
			if !overlapSlabs(amin, amax, bmin, bmax, 0.01, tile.Header.WalkableClimb) {
				continue
			}

			// Add return value.
			if int(n) < len(con) {
				conarea[n*2+0] = common.Max(amin[0], bmin[0])
				conarea[n*2+1] = common.Min(amax[0], bmax[0])
				con[n] = base | DtPolyRef(i)
				n++
			}
			break
		}
	}
	return n
}

// connectExtLinks stitches border edges of tile to polygons of target.
func (mesh *DtNavMesh) connectExtLinks(tile, target *DtMeshTile, side int32) {
	if tile == nil {
		return
	}

	var nei [4]DtPolyRef
	var neia [4 * 2]float32

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]

		nv := int32(poly.VertCount)
		for j := int32(0); j < nv; j++ {
			// Skip non-portal edges.
			if (poly.Neis[j] & DT_EXT_LINK) == 0 {
				continue
			}

			dir := int32(poly.Neis[j] & 0xff)
			if side != -1 && dir != side {
				continue
			}

			// Create new links
			va := common.GetVec3(tile.Verts, poly.Verts[j])
			vb := common.GetVec3(tile.Verts, poly.Verts[(j+1)%nv])

			nnei := mesh.findConnectingPolys(va, vb, target, dtOppositeTile(dir), nei[:], neia[:])
			for k := int32(0); k < nnei; k++ {
				idx := allocLink(tile)
				if idx == DT_NULL_LINK {
					continue
				}
				link := &tile.Links[idx]
				link.Ref = nei[k]
				link.Edge = uint8(j)
				link.Side = uint8(dir)
				link.Next = poly.FirstLink
				poly.FirstLink = idx

				// Compress portal limits to a byte value.
				if dir == 0 || dir == 4 {
					tmin := (neia[k*2+0] - va[2]) / (vb[2] - va[2])
					tmax := (neia[k*2+1] - va[2]) / (vb[2] - va[2])
					if tmin > tmax {
						tmin, tmax = tmax, tmin
					}
					link.Bmin = uint8(math.Round(float64(common.Clamp(tmin, 0.0, 1.0) * 255.0)))
					link.Bmax = uint8(math.Round(float64(common.Clamp(tmax, 0.0, 1.0) * 255.0)))
				} else if dir == 2 || dir == 6 {
					tmin := (neia[k*2+0] - va[0]) / (vb[0] - va[0])
					tmax := (neia[k*2+1] - va[0]) / (vb[0] - va[0])
					if tmin > tmax {
						tmin, tmax = tmax, tmin
					}
					link.Bmin = uint8(math.Round(float64(common.Clamp(tmin, 0.0, 1.0) * 255.0)))
					link.Bmax = uint8(math.Round(float64(common.Clamp(tmax, 0.0, 1.0) * 255.0)))
				}
			}
		}
	}
}

// connectExtOffMeshLinks lands off-mesh connections of target onto tile.
func (mesh *DtNavMesh) connectExtOffMeshLinks(tile, target *DtMeshTile, side int32) {
	if tile == nil || target == nil {
		return
	}

	// We are interested in links which land from target tile to this tile.
	oppositeSide := uint8(0xff)
	if side != -1 {
		oppositeSide = uint8(dtOppositeTile(side))
	}

	for i := int32(0); i < target.Header.OffMeshConCount; i++ {
		targetCon := &target.OffMeshCons[i]
		if targetCon.Side != oppositeSide {
			continue
		}

		targetPoly := &target.Polys[targetCon.Poly]
		// Skip off-mesh connections which start location could not be
		// connected at all.
		if targetPoly.FirstLink == DT_NULL_LINK {
			continue
		}

		halfExtents := common.Vec3{targetCon.Rad, target.Header.WalkableClimb, targetCon.Rad}

		// Find polygon to connect to.
		p := common.Vec3{targetCon.Pos[3], targetCon.Pos[4], targetCon.Pos[5]}
		nearestPt, ref := mesh.findNearestPolyInTile(tile, p, halfExtents)
		if ref == 0 {
			continue
		}
		// findNearestPoly may return too optimistic results, further check
		// to make sure.
		if common.Sqr(nearestPt[0]-p[0])+common.Sqr(nearestPt[2]-p[2]) > common.Sqr(targetCon.Rad) {
			continue
		}

		// Make sure the location is on current mesh.
		common.SetVec3(target.Verts, targetPoly.Verts[1], nearestPt)

		// Link off-mesh connection to target poly.
		idx := allocLink(target)
		if idx != DT_NULL_LINK {
			link := &target.Links[idx]
			link.Ref = ref
			link.Edge = 1
			link.Side = oppositeSide
			link.Bmin = 0
			link.Bmax = 0
			link.Next = targetPoly.FirstLink
			targetPoly.FirstLink = idx
		}

		// Link target poly to off-mesh connection.
		if targetCon.Flags&DT_OFFMESH_CON_BIDIR != 0 {
			tidx := allocLink(tile)
			if tidx != DT_NULL_LINK {
				landPolyIdx := mesh.DecodePolyIdPoly(ref)
				landPoly := &tile.Polys[landPolyIdx]
				link := &tile.Links[tidx]
				link.Ref = mesh.GetPolyRefBase(target) | DtPolyRef(targetCon.Poly)
				link.Edge = 0xff
				link.Side = 0xff
				if side != -1 {
					link.Side = uint8(side)
				}
				link.Bmin = 0
				link.Bmax = 0
				link.Next = landPoly.FirstLink
				landPoly.FirstLink = tidx
			}
		}
	}
}

// baseOffMeshLinks attaches off-mesh connection start points to the
// polygons they stand on within the same tile.
func (mesh *DtNavMesh) baseOffMeshLinks(tile *DtMeshTile) {
	base := mesh.GetPolyRefBase(tile)

	for i := int32(0); i < tile.Header.OffMeshConCount; i++ {
		con := &tile.OffMeshCons[i]
		poly := &tile.Polys[con.Poly]

		halfExtents := common.Vec3{con.Rad, tile.Header.WalkableClimb, con.Rad}

		// Find polygon to connect to.
		p := common.Vec3{con.Pos[0], con.Pos[1], con.Pos[2]}
		nearestPt, ref := mesh.findNearestPolyInTile(tile, p, halfExtents)
		if ref == 0 {
			continue
		}
		if common.Sqr(nearestPt[0]-p[0])+common.Sqr(nearestPt[2]-p[2]) > common.Sqr(con.Rad) {
			continue
		}

		// Make sure the location is on current mesh.
		common.SetVec3(tile.Verts, poly.Verts[0], nearestPt)

		// Link off-mesh connection to target poly.
		idx := allocLink(tile)
		if idx != DT_NULL_LINK {
			link := &tile.Links[idx]
			link.Ref = ref
			link.Edge = 0
			link.Side = 0xff
			link.Bmin = 0
			link.Bmax = 0
			link.Next = poly.FirstLink
			poly.FirstLink = idx
		}

		// Start end-point is always connected back to the off-mesh connection.
		tidx := allocLink(tile)
		if tidx != DT_NULL_LINK {
			landPolyIdx := mesh.DecodePolyIdPoly(ref)
			landPoly := &tile.Polys[landPolyIdx]
			link := &tile.Links[tidx]
			link.Ref = base | DtPolyRef(con.Poly)
			link.Edge = 0xff
			link.Side = 0xff
			link.Bmin = 0
			link.Bmax = 0
			link.Next = landPoly.FirstLink
			landPoly.FirstLink = tidx
		}
	}
}

// unconnectLinks removes links from tile that point into target.
func (mesh *DtNavMesh) unconnectLinks(tile, target *DtMeshTile) {
	if tile == nil || target == nil {
		return
	}

	targetNum := mesh.DecodePolyIdTile(DtPolyRef(mesh.GetTileRef(target)))

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := &tile.Polys[i]
		j := poly.FirstLink
		pj := uint32(DT_NULL_LINK)
		for j != DT_NULL_LINK {
			if mesh.DecodePolyIdTile(tile.Links[j].Ref) == targetNum {
				// Remove link.
				nj := tile.Links[j].Next
				if pj == DT_NULL_LINK {
					poly.FirstLink = nj
				} else {
					tile.Links[pj].Next = nj
				}
				freeLink(tile, j)
				j = nj
			} else {
				// Advance
				pj = j
				j = tile.Links[j].Next
			}
		}
	}
}

/// @name Tile management.

// AddTile adds a tile to the navigation mesh.
//
// The add operation fails if the data is in the wrong format, the
// allocated tile space is full, or there is a tile already at the
// specified location. A failed add leaves the mesh unchanged.
//
// The lastRef parameter is used to restore a tile with the same tile
// reference it had previously used, so that polygon references into the
// tile remain valid across a streaming reload.
//
// If flags contains DT_TILE_FREE_DATA the mesh takes ownership of data
// and will not return it from RemoveTile.
func (mesh *DtNavMesh) AddTile(data *NavMeshData, flags int32, lastRef DtTileRef) (result DtTileRef, status DtStatus) {
	// Make sure the data is in right format.
	header := data.Header
	if header == nil || header.Magic != DT_NAVMESH_MAGIC {
		return 0, DT_FAILURE | DT_WRONG_MAGIC
	}
	if header.Version != DT_NAVMESH_VERSION {
		return 0, DT_FAILURE | DT_WRONG_VERSION
	}
	if header.PolyCount < 0 || header.VertCount < 0 || header.MaxLinkCount < 0 ||
		header.PolyCount > mesh.m_params.MaxPolys ||
		len(data.NavVerts) < int(header.VertCount)*3 ||
		len(data.NavPolys) < int(header.PolyCount) ||
		len(data.Links) < int(header.MaxLinkCount) {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	// Make sure the location is free.
	if mesh.GetTileAt(header.X, header.Y, header.Layer) != nil {
		return 0, DT_FAILURE | DT_ALREADY_OCCUPIED
	}

	// Allocate a tile.
	var tile *DtMeshTile
	if lastRef == 0 {
		if mesh.m_nextFree != nil {
			tile = mesh.m_nextFree
			mesh.m_nextFree = tile.Next
			tile.Next = nil
		}
	} else {
		// Try to relocate the tile to the specific index with the same salt.
		tileIndex := mesh.DecodePolyIdTile(DtPolyRef(lastRef))
		if tileIndex >= uint32(mesh.m_maxTiles) {
			return 0, DT_FAILURE | DT_OUT_OF_MEMORY
		}
		// Try to find the specific tile id from the free list.
		target := &mesh.m_tiles[tileIndex]
		var prev *DtMeshTile
		tile = mesh.m_nextFree
		for tile != nil && tile != target {
			prev = tile
			tile = tile.Next
		}
		// Could not find the correct location.
		if tile != target {
			return 0, DT_FAILURE | DT_OUT_OF_MEMORY
		}
		// Remove from freelist.
		if prev == nil {
			mesh.m_nextFree = tile.Next
		} else {
			prev.Next = tile.Next
		}
		// Restore salt.
		tile.salt = mesh.DecodePolyIdSalt(DtPolyRef(lastRef))
	}

	// Make sure we could allocate a tile.
	if tile == nil {
		return 0, DT_FAILURE | DT_OUT_OF_MEMORY
	}

	// Insert tile into the position lut.
	h := common.ComputeTileHash(header.X, header.Y, mesh.m_tileLutMask)
	tile.Next = mesh.m_posLookup[h]
	mesh.m_posLookup[h] = tile

	// Patch tile pointers into the data sections.
	tile.Verts = data.NavVerts
	tile.Polys = data.NavPolys
	tile.Links = data.Links
	tile.BvTree = data.NavBvtree
	tile.OffMeshCons = data.OffMeshCons

	// Build links freelist.
	tile.linksFreeList = DT_NULL_LINK
	if header.MaxLinkCount > 0 {
		tile.linksFreeList = 0
		tile.Links[header.MaxLinkCount-1].Next = DT_NULL_LINK
		for i := int32(0); i < header.MaxLinkCount-1; i++ {
			tile.Links[i].Next = uint32(i) + 1
		}
	}

	// Init tile.
	tile.Header = header
	tile.Data = data
	tile.Flags = flags

	mesh.connectIntLinks(tile)

	// Base off-mesh connections to their starting polygons and connect
	// connections inside the tile.
	mesh.baseOffMeshLinks(tile)
	mesh.connectExtOffMeshLinks(tile, tile, -1)

	var neis [32]*DtMeshTile

	// Connect with layers in current tile.
	nneis := mesh.GetTilesAt(header.X, header.Y, neis[:])
	for j := int32(0); j < nneis; j++ {
		if neis[j] == tile {
			continue
		}
		mesh.connectExtLinks(tile, neis[j], -1)
		mesh.connectExtLinks(neis[j], tile, -1)
		mesh.connectExtOffMeshLinks(tile, neis[j], -1)
		mesh.connectExtOffMeshLinks(neis[j], tile, -1)
	}

	// Connect with neighbour tiles.
	for i := int32(0); i < 8; i++ {
		nneis = mesh.getNeighbourTilesAt(header.X, header.Y, i, neis[:])
		for j := int32(0); j < nneis; j++ {
			mesh.connectExtLinks(tile, neis[j], i)
			mesh.connectExtLinks(neis[j], tile, dtOppositeTile(i))
			mesh.connectExtOffMeshLinks(tile, neis[j], i)
			mesh.connectExtOffMeshLinks(neis[j], tile, dtOppositeTile(i))
		}
	}

	result = mesh.GetTileRef(tile)
	mesh.log.Debug("tile added",
		zap.Int32("x", header.X), zap.Int32("y", header.Y), zap.Int32("layer", header.Layer),
		zap.Int32("polys", header.PolyCount), zap.Uint64("ref", uint64(result)))
	return result, DT_SUCCESS
}

// RemoveTile removes the specified tile and returns its data so it can be
// added back later, unless the mesh owns the data (DT_TILE_FREE_DATA).
// All references into the tile become stale: the slot salt is bumped.
func (mesh *DtNavMesh) RemoveTile(ref DtTileRef) (data *NavMeshData, status DtStatus) {
	if ref == 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if tileIndex >= uint32(mesh.m_maxTiles) {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	tile := &mesh.m_tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	header := tile.Header

	// Remove tile from hash lookup.
	h := common.ComputeTileHash(header.X, header.Y, mesh.m_tileLutMask)
	var prev *DtMeshTile
	cur := mesh.m_posLookup[h]
	for cur != nil {
		if cur == tile {
			if prev != nil {
				prev.Next = cur.Next
			} else {
				mesh.m_posLookup[h] = cur.Next
			}
			break
		}
		prev = cur
		cur = cur.Next
	}

	var neis [32]*DtMeshTile

	// Disconnect from other layers in current tile.
	nneis := mesh.GetTilesAt(header.X, header.Y, neis[:])
	for j := int32(0); j < nneis; j++ {
		if neis[j] == tile {
			continue
		}
		mesh.unconnectLinks(neis[j], tile)
	}

	// Disconnect from neighbour tiles.
	for i := int32(0); i < 8; i++ {
		nneis = mesh.getNeighbourTilesAt(header.X, header.Y, i, neis[:])
		for j := int32(0); j < nneis; j++ {
			mesh.unconnectLinks(neis[j], tile)
		}
	}

	// Hand the data back unless the mesh owns it.
	if tile.Flags&DT_TILE_FREE_DATA == 0 {
		data = tile.Data
	}

	// Reset tile.
	tile.Header = nil
	tile.Data = nil
	tile.Flags = 0
	tile.linksFreeList = 0
	tile.Polys = nil
	tile.Verts = nil
	tile.Links = nil
	tile.BvTree = nil
	tile.OffMeshCons = nil

	// Update salt, salt should never be zero.
	tile.salt = (tile.salt + 1) & ((1 << DT_SALT_BITS) - 1)
	if tile.salt == 0 {
		tile.salt++
	}

	// Add to free list.
	tile.Next = mesh.m_nextFree
	mesh.m_nextFree = tile

	mesh.log.Debug("tile removed",
		zap.Int32("x", header.X), zap.Int32("y", header.Y), zap.Int32("layer", header.Layer))
	return data, DT_SUCCESS
}

// Destroy removes every loaded tile and releases the lookup structures.
// Tile data the mesh owns is dropped; caller owned data stays with its
// owner. The mesh must not be used afterwards and every outstanding
// reference is invalid.
func (mesh *DtNavMesh) Destroy() {
	for i := int32(0); i < mesh.m_maxTiles; i++ {
		tile := &mesh.m_tiles[i]
		if tile.Header == nil {
			continue
		}
		mesh.RemoveTile(mesh.GetTileRef(tile))
	}
	mesh.m_maxTiles = 0
	mesh.m_tiles = nil
	mesh.m_posLookup = nil
	mesh.m_nextFree = nil
}

/// @name Intra-tile spatial queries used while stitching.

// queryPolygonsInTile collects polygon refs in the tile overlapping the
// AABB, via the BV tree when present, linear polygon bounds otherwise.
func (mesh *DtNavMesh) queryPolygonsInTile(tile *DtMeshTile, qmin, qmax common.Vec3, polys []DtPolyRef) int32 {
	n := int32(0)
	base := mesh.GetPolyRefBase(tile)

	if len(tile.BvTree) > 0 {
		node := int32(0)
		end := tile.Header.BvNodeCount
		tbmin := tile.Header.Bmin
		tbmax := tile.Header.Bmax
		qfac := tile.Header.BvQuantFactor

		// Clamp query box to world box and quantize.
		var bmin, bmax [3]uint16
		minx := common.Clamp(qmin[0], tbmin[0], tbmax[0]) - tbmin[0]
		miny := common.Clamp(qmin[1], tbmin[1], tbmax[1]) - tbmin[1]
		minz := common.Clamp(qmin[2], tbmin[2], tbmax[2]) - tbmin[2]
		maxx := common.Clamp(qmax[0], tbmin[0], tbmax[0]) - tbmin[0]
		maxy := common.Clamp(qmax[1], tbmin[1], tbmax[1]) - tbmin[1]
		maxz := common.Clamp(qmax[2], tbmin[2], tbmax[2]) - tbmin[2]
		bmin[0] = uint16(qfac*minx) & 0xfffe
		bmin[1] = uint16(qfac*miny) & 0xfffe
		bmin[2] = uint16(qfac*minz) & 0xfffe
		bmax[0] = uint16(qfac*maxx+1) | 1
		bmax[1] = uint16(qfac*maxy+1) | 1
		bmax[2] = uint16(qfac*maxz+1) | 1

		// Traverse tree
		for node < end {
			overlap := common.OverlapQuantBounds(bmin, bmax, tile.BvTree[node].Bmin, tile.BvTree[node].Bmax)
			isLeafNode := tile.BvTree[node].I >= 0

			if isLeafNode && overlap {
				if int(n) < len(polys) {
					polys[n] = base | DtPolyRef(tile.BvTree[node].I)
					n++
				}
			}

			if overlap || isLeafNode {
				node++
			} else {
				node += -tile.BvTree[node].I
			}
		}
		return n
	}

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		p := &tile.Polys[i]
		// Do not return off-mesh connection polygons.
		if p.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}
		// Calc polygon bounds.
		bmin := common.GetVec3(tile.Verts, p.Verts[0])
		bmax := bmin
		for j := int32(1); j < int32(p.VertCount); j++ {
			v := common.GetVec3(tile.Verts, p.Verts[j])
			common.Vmin(&bmin, v)
			common.Vmax(&bmax, v)
		}
		if common.OverlapBounds(qmin, qmax, bmin, bmax) {
			if int(n) < len(polys) {
				polys[n] = base | DtPolyRef(i)
				n++
			}
		}
	}
	return n
}

// findNearestPolyInTile is the intra-tile nearest lookup used when basing
// off-mesh connections.
func (mesh *DtNavMesh) findNearestPolyInTile(tile *DtMeshTile, center, halfExtents common.Vec3) (nearestPt common.Vec3, nearest DtPolyRef) {
	bmin := center.Sub(halfExtents)
	bmax := center.Add(halfExtents)

	// Get nearby polygons from proximity grid.
	var polys [128]DtPolyRef
	polyCount := mesh.queryPolygonsInTile(tile, bmin, bmax, polys[:])

	// Find nearest polygon amongst the nearby polygons.
	nearestDistanceSqr := float32(math.MaxFloat32)
	for i := int32(0); i < polyCount; i++ {
		ref := polys[i]
		closestPtPoly, posOverPoly := mesh.ClosestPointOnPoly(ref, center)
		var d float32
		diff := center.Sub(closestPtPoly)
		if posOverPoly {
			// If a point is directly over a polygon and closer than climb
			// height, favor that instead of straight line nearest point.
			d = common.Abs(diff[1]) - tile.Header.WalkableClimb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = diff.Dot(diff)
		}

		if d < nearestDistanceSqr {
			nearestPt = closestPtPoly
			nearestDistanceSqr = d
			nearest = ref
		}
	}
	return nearestPt, nearest
}

/// @name Polygon surface queries.

// GetPolyHeight returns the mesh surface height at pos when pos lies over
// the polygon on the xz-plane. The polygon is fan-triangulated from its
// first vertex.
func (mesh *DtNavMesh) GetPolyHeight(tile *DtMeshTile, poly *DtPoly, pos common.Vec3) (height float32, ok bool) {
	// Off-mesh connections do not have a surface.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		return 0, false
	}

	var verts [DT_VERTS_PER_POLYGON * 3]float32
	nv := int32(poly.VertCount)
	for i := int32(0); i < nv; i++ {
		common.SetVec3(verts[:], i, common.GetVec3(tile.Verts, poly.Verts[i]))
	}
	if !common.PointInPolygon(pos, verts[:], int(nv)) {
		return 0, false
	}

	// Find height at the location.
	v0 := common.GetVec3(verts[:], 0)
	for j := int32(2); j < nv; j++ {
		a := common.GetVec3(verts[:], j-1)
		b := common.GetVec3(verts[:], j)
		if h, ok := common.ClosestHeightPointTriangle(pos, v0, a, b); ok {
			return h, true
		}
	}

	// If all triangle checks failed above (can happen with degenerate
	// triangles or larger floating point values) the point is on an edge,
	// so just select the closest.
	closest := mesh.closestPointOnPolyEdges(tile, poly, pos)
	return closest[1], true
}

// closestPointOnPolyEdges returns the closest point to pos on the
// polygon's boundary edges, with the height interpolated along the edge.
func (mesh *DtNavMesh) closestPointOnPolyEdges(tile *DtMeshTile, poly *DtPoly, pos common.Vec3) common.Vec3 {
	nv := int(poly.VertCount)
	dmin := float32(math.MaxFloat32)
	tmin := float32(0)
	var pmin, pmax common.Vec3

	j := nv - 1
	for i := 0; i < nv; i++ {
		vj := common.GetVec3(tile.Verts, poly.Verts[j])
		vi := common.GetVec3(tile.Verts, poly.Verts[i])
		t, d := common.DistancePtSegSqr2D(pos, vj, vi)
		if d < dmin {
			dmin = d
			tmin = t
			pmin = vj
			pmax = vi
		}
		j = i
	}
	return common.Vlerp(pmin, pmax, tmin)
}

// ClosestPointOnPoly projects pos onto the polygon surface. posOverPoly
// reports whether pos was directly over the polygon; otherwise the result
// is clamped to the nearest boundary edge.
//
// Only call with a reference known to be valid; use
// DtNavMeshQuery.ClosestPointOnPoly for the validating variant.
func (mesh *DtNavMesh) ClosestPointOnPoly(ref DtPolyRef, pos common.Vec3) (closest common.Vec3, posOverPoly bool) {
	tile, poly := mesh.GetTileAndPolyByRefUnsafe(ref)
	closest = pos
	if height, ok := mesh.GetPolyHeight(tile, poly, pos); ok {
		closest[1] = height
		return closest, true
	}

	// Off-mesh connections don't have polygon surfaces.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		v0 := common.GetVec3(tile.Verts, poly.Verts[0])
		v1 := common.GetVec3(tile.Verts, poly.Verts[1])
		t, _ := common.DistancePtSegSqr2D(pos, v0, v1)
		return common.Vlerp(v0, v1, t), false
	}

	// Outside poly that is not an off-mesh connection.
	return mesh.closestPointOnPolyEdges(tile, poly, pos), false
}

/// @name Off-mesh connections.

// GetOffMeshConnectionPolyEndPoints returns the endpoints of an off-mesh
// connection, ordered by "direction of travel": prevRef identifies the
// polygon the connection was entered from.
func (mesh *DtNavMesh) GetOffMeshConnectionPolyEndPoints(prevRef, polyRef DtPolyRef) (startPos, endPos common.Vec3, status DtStatus) {
	tile, poly, st := mesh.GetTileAndPolyByRef(polyRef)
	if st.DtStatusFailed() {
		return startPos, endPos, st
	}

	// Make sure that the current poly is indeed an off-mesh link.
	if poly.GetType() != DT_POLYTYPE_OFFMESH_CONNECTION {
		return startPos, endPos, DT_FAILURE
	}

	// Figure out which way to hand out the vertices.
	idx0, idx1 := 0, 1

	// Find link that points to first vertex.
	for i := poly.FirstLink; i != DT_NULL_LINK; i = tile.Links[i].Next {
		if tile.Links[i].Edge == 0 {
			if tile.Links[i].Ref != prevRef {
				idx0, idx1 = 1, 0
			}
			break
		}
	}

	startPos = common.GetVec3(tile.Verts, poly.Verts[idx0])
	endPos = common.GetVec3(tile.Verts, poly.Verts[idx1])
	return startPos, endPos, DT_SUCCESS
}

// GetOffMeshConnectionByRef returns the off-mesh connection record for a
// connection polygon reference, or nil.
func (mesh *DtNavMesh) GetOffMeshConnectionByRef(ref DtPolyRef) *DtOffMeshConnection {
	if ref == 0 {
		return nil
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if it >= uint32(mesh.m_maxTiles) {
		return nil
	}
	tile := &mesh.m_tiles[it]
	if tile.salt != salt || tile.Header == nil {
		return nil
	}
	if ip >= uint32(tile.Header.PolyCount) {
		return nil
	}
	poly := &tile.Polys[ip]
	if poly.GetType() != DT_POLYTYPE_OFFMESH_CONNECTION {
		return nil
	}
	idx := int32(ip) - tile.Header.OffMeshBase
	if idx < 0 || idx >= tile.Header.OffMeshConCount {
		return nil
	}
	return &tile.OffMeshCons[idx]
}

/// @name Polygon state. These functions do not affect references.

// SetPolyFlags sets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) SetPolyFlags(ref DtPolyRef, flags uint16) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return status
	}
	poly.Flags = flags
	return DT_SUCCESS
}

// GetPolyFlags gets the user defined flags for the specified polygon.
func (mesh *DtNavMesh) GetPolyFlags(ref DtPolyRef) (resultFlags uint16, status DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return 0, status
	}
	return poly.Flags, DT_SUCCESS
}

// SetPolyArea sets the user defined area for the specified polygon.
func (mesh *DtNavMesh) SetPolyArea(ref DtPolyRef, area uint8) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return status
	}
	poly.SetArea(area)
	return DT_SUCCESS
}

// GetPolyArea gets the user defined area for the specified polygon.
func (mesh *DtNavMesh) GetPolyArea(ref DtPolyRef) (resultArea uint8, status DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return 0, status
	}
	return poly.GetArea(), DT_SUCCESS
}
