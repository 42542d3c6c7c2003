package detour

import (
	"math"

	"tilednav/common"
)

// H_SCALE scales the A* heuristic slightly below the true distance so
// that ties between equally long corridors resolve toward the goal.
const H_SCALE = float32(0.999)

// Vertex flags returned by DtNavMeshQuery.FindStraightPath.
const (
	DT_STRAIGHTPATH_START              = 0x01 ///< The vertex is the start position in the path.
	DT_STRAIGHTPATH_END                = 0x02 ///< The vertex is the end position in the path.
	DT_STRAIGHTPATH_OFFMESH_CONNECTION = 0x04 ///< The vertex is the start of an off-mesh connection.
)

// Options for DtNavMeshQuery.FindStraightPath.
const (
	DT_STRAIGHTPATH_AREA_CROSSINGS = 0x01 ///< Add a vertex at every polygon edge crossing where area changes.
	DT_STRAIGHTPATH_ALL_CROSSINGS  = 0x02 ///< Add a vertex at every polygon edge crossing.
)

// DtNavMeshQuery runs pathfinding queries against a DtNavMesh. It owns a
// bounded node pool and open list, so each concurrent searcher needs its
// own instance; the underlying mesh is only read.
type DtNavMeshQuery struct {
	m_nav          *DtNavMesh
	m_nodePool     *DtNodePool
	m_tinyNodePool *DtNodePool
	m_openList     *dtNodeQueue
}

// NewDtNavMeshQuery initializes the query object. maxNodes bounds the
// number of polygons a single search may touch; when the bound is hit
// results degrade to partial with DT_OUT_OF_NODES set.
func NewDtNavMeshQuery(nav *DtNavMesh, maxNodes int32) (*DtNavMeshQuery, DtStatus) {
	if nav == nil || maxNodes <= 0 || uint32(maxNodes) >= uint32(DT_NULL_IDX) {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}

	hashSize := int32(common.NextPow2(uint32(maxNodes / 4)))
	if hashSize == 0 {
		hashSize = 1
	}
	q := &DtNavMeshQuery{
		m_nav:          nav,
		m_nodePool:     NewDtNodePool(maxNodes, hashSize),
		m_tinyNodePool: NewDtNodePool(64, 32),
		m_openList:     newDtNodeQueue(),
	}
	return q, DT_SUCCESS
}

// GetAttachedNavMesh returns the navigation mesh the query operates on.
func (q *DtNavMeshQuery) GetAttachedNavMesh() *DtNavMesh { return q.m_nav }

// Destroy releases the search state. The query must not be used afterwards.
func (q *DtNavMeshQuery) Destroy() {
	q.m_nav = nil
	q.m_nodePool = nil
	q.m_tinyNodePool = nil
	q.m_openList = nil
}

// GetNodePool exposes the search node pool, mainly for instrumentation.
func (q *DtNavMeshQuery) GetNodePool() *DtNodePool { return q.m_nodePool }

// IsValidPolyRef reports whether the reference is valid and passes the
// filter. A reference becomes invalid when its tile is removed.
func (q *DtNavMeshQuery) IsValidPolyRef(ref DtPolyRef, filter *DtQueryFilter) bool {
	_, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return false
	}
	return filter.PassFilter(poly)
}

/// @name Local queries.

// ClosestPointOnPoly finds the closest point on the polygon surface.
// posOverPoly reports whether pos was directly over the polygon.
func (q *DtNavMeshQuery) ClosestPointOnPoly(ref DtPolyRef, pos common.Vec3) (closest common.Vec3, posOverPoly bool, status DtStatus) {
	if !q.m_nav.IsValidPolyRef(ref) || !common.Visfinite(pos) {
		return closest, false, DT_FAILURE | DT_INVALID_PARAM
	}
	closest, posOverPoly = q.m_nav.ClosestPointOnPoly(ref, pos)
	return closest, posOverPoly, DT_SUCCESS
}

// ClosestPointOnPolyBoundary clamps pos to the polygon's xz-bounds. Much
// faster than ClosestPointOnPoly; if pos lies within the bounds the
// result equals pos, height untouched.
func (q *DtNavMeshQuery) ClosestPointOnPolyBoundary(ref DtPolyRef, pos common.Vec3) (closest common.Vec3, status DtStatus) {
	tile, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return closest, DT_FAILURE | DT_INVALID_PARAM
	}
	if !common.Visfinite(pos) {
		return closest, DT_FAILURE | DT_INVALID_PARAM
	}

	// Collect vertices.
	var verts [DT_VERTS_PER_POLYGON * 3]float32
	var edged [DT_VERTS_PER_POLYGON]float32
	var edget [DT_VERTS_PER_POLYGON]float32
	nv := int(poly.VertCount)
	for i := 0; i < nv; i++ {
		common.SetVec3(verts[:], i, common.GetVec3(tile.Verts, poly.Verts[i]))
	}

	inside := common.DistancePtPolyEdgesSqr(pos, verts[:], nv, edged[:], edget[:])
	if inside {
		// Point is inside the polygon, return the point.
		return pos, DT_SUCCESS
	}

	// Point is outside the polygon, clamp to nearest edge.
	dmin := edged[0]
	imin := 0
	for i := 1; i < nv; i++ {
		if edged[i] < dmin {
			dmin = edged[i]
			imin = i
		}
	}
	va := common.GetVec3(verts[:], imin)
	vb := common.GetVec3(verts[:], (imin+1)%nv)
	return common.Vlerp(va, vb, edget[imin]), DT_SUCCESS
}

// GetPolyHeight returns the mesh surface height at pos. Fails when pos is
// outside the polygon's xz-bounds or the polygon is an off-mesh
// connection.
func (q *DtNavMeshQuery) GetPolyHeight(ref DtPolyRef, pos common.Vec3) (height float32, status DtStatus) {
	tile, poly, status := q.m_nav.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	if !common.Visfinite2D(pos) {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	// Off-mesh connections do not have a surface; use the height of the
	// segment at the closest parameter.
	if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		v0 := common.GetVec3(tile.Verts, poly.Verts[0])
		v1 := common.GetVec3(tile.Verts, poly.Verts[1])
		t, _ := common.DistancePtSegSqr2D(pos, v0, v1)
		return v0[1] + (v1[1]-v0[1])*t, DT_SUCCESS
	}

	if h, ok := q.m_nav.GetPolyHeight(tile, poly, pos); ok {
		return h, DT_SUCCESS
	}
	return 0, DT_FAILURE | DT_INVALID_PARAM
}

/// @name Spatial queries.

// dtPolyQuery provides custom polygon query behavior; queryPolygons
// invokes process with batches of polygons overlapping the search box.
type dtPolyQuery interface {
	process(tile *DtMeshTile, refs []DtPolyRef, count int32)
}

type dtFindNearestPolyQuery struct {
	m_query              *DtNavMeshQuery
	m_center             common.Vec3
	m_nearestDistanceSqr float32
	m_nearestRef         DtPolyRef
	m_nearestPoint       common.Vec3
	m_overPoly           bool
}

func newDtFindNearestPolyQuery(query *DtNavMeshQuery, center common.Vec3) *dtFindNearestPolyQuery {
	return &dtFindNearestPolyQuery{
		m_query:              query,
		m_center:             center,
		m_nearestDistanceSqr: float32(math.MaxFloat32),
	}
}

func (query *dtFindNearestPolyQuery) nearestRef() DtPolyRef     { return query.m_nearestRef }
func (query *dtFindNearestPolyQuery) nearestPoint() common.Vec3 { return query.m_nearestPoint }
func (query *dtFindNearestPolyQuery) isOverPoly() bool          { return query.m_overPoly }

func (query *dtFindNearestPolyQuery) process(tile *DtMeshTile, refs []DtPolyRef, count int32) {
	for i := int32(0); i < count; i++ {
		ref := refs[i]
		closestPtPoly, posOverPoly := query.m_query.m_nav.ClosestPointOnPoly(ref, query.m_center)

		// If a point is directly over a polygon and closer than climb
		// height, favor that instead of straight line nearest point.
		var d float32
		diff := query.m_center.Sub(closestPtPoly)
		if posOverPoly {
			d = common.Abs(diff[1]) - tile.Header.WalkableClimb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = diff.Dot(diff)
		}

		if d < query.m_nearestDistanceSqr {
			query.m_nearestPoint = closestPtPoly
			query.m_nearestDistanceSqr = d
			query.m_nearestRef = ref
			query.m_overPoly = posOverPoly
		}
	}
}

type dtCollectPolysQuery struct {
	m_polys        []DtPolyRef
	m_maxPolys     int32
	m_numCollected int32
	m_overflow     bool
}

func newDtCollectPolysQuery(polys []DtPolyRef, maxPolys int32) *dtCollectPolysQuery {
	return &dtCollectPolysQuery{
		m_polys:    polys,
		m_maxPolys: maxPolys,
	}
}

func (query *dtCollectPolysQuery) numCollected() int32 { return query.m_numCollected }
func (query *dtCollectPolysQuery) overflowed() bool    { return query.m_overflow }

func (query *dtCollectPolysQuery) process(tile *DtMeshTile, refs []DtPolyRef, count int32) {
	numLeft := query.m_maxPolys - query.m_numCollected
	toCopy := count
	if toCopy > numLeft {
		query.m_overflow = true
		toCopy = numLeft
	}
	copy(query.m_polys[query.m_numCollected:], refs[:toCopy])
	query.m_numCollected += toCopy
}

// FindNearestPoly finds the polygon nearest to center within the search
// box. Success with a zero nearestRef means no polygon was found; that is
// not an error.
func (q *DtNavMeshQuery) FindNearestPoly(center, halfExtents common.Vec3, filter *DtQueryFilter) (nearestRef DtPolyRef, nearestPt common.Vec3, status DtStatus) {
	query := newDtFindNearestPolyQuery(q, center)
	status = q.queryPolygons(center, halfExtents, filter, query)
	if status.DtStatusFailed() {
		return 0, nearestPt, status
	}

	nearestRef = query.nearestRef()
	// Only override nearestPt when a poly was found.
	if nearestRef != 0 {
		nearestPt = query.nearestPoint()
	}
	return nearestRef, nearestPt, DT_SUCCESS
}

// QueryPolygons collects polygons overlapping the search box, up to
// len(polys). DT_BUFFER_TOO_SMALL is set when the box touched more.
func (q *DtNavMeshQuery) QueryPolygons(center, halfExtents common.Vec3, filter *DtQueryFilter, polys []DtPolyRef) (polyCount int32, status DtStatus) {
	if len(polys) == 0 {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	collector := newDtCollectPolysQuery(polys, int32(len(polys)))
	status = q.queryPolygons(center, halfExtents, filter, collector)
	if status.DtStatusFailed() {
		return 0, status
	}

	status = DT_SUCCESS
	if collector.overflowed() {
		status |= DT_BUFFER_TOO_SMALL
	}
	return collector.numCollected(), status
}

// queryPolygons walks the tile grid covered by the box and hands each
// overlapped tile to queryPolygonsInTile.
func (q *DtNavMeshQuery) queryPolygons(center, halfExtents common.Vec3, filter *DtQueryFilter, query dtPolyQuery) DtStatus {
	if !common.Visfinite(center) || !common.Visfinite(halfExtents) ||
		halfExtents[0] < 0 || halfExtents[1] < 0 || halfExtents[2] < 0 ||
		filter == nil || query == nil {
		return DT_FAILURE | DT_INVALID_PARAM
	}

	bmin := center.Sub(halfExtents)
	bmax := center.Add(halfExtents)

	// Find tiles the query touches.
	minx, miny := q.m_nav.CalcTileLoc(bmin)
	maxx, maxy := q.m_nav.CalcTileLoc(bmax)

	const MAX_NEIS = 32
	var neis [MAX_NEIS]*DtMeshTile

	for y := miny; y <= maxy; y++ {
		for x := minx; x <= maxx; x++ {
			nneis := q.m_nav.GetTilesAt(x, y, neis[:])
			for j := int32(0); j < nneis; j++ {
				q.queryPolygonsInTile(neis[j], bmin, bmax, filter, query)
			}
		}
	}
	return DT_SUCCESS
}

// queryPolygonsInTile finds polygons within a tile overlapping the box,
// using the tile's BV tree when present and linear polygon bounds
// otherwise. Off-mesh connection polygons are never returned.
func (q *DtNavMeshQuery) queryPolygonsInTile(tile *DtMeshTile, qmin, qmax common.Vec3, filter *DtQueryFilter, query dtPolyQuery) {
	const batchSize = 32
	var polyRefs [batchSize]DtPolyRef
	n := int32(0)

	base := q.m_nav.GetPolyRefBase(tile)

	if len(tile.BvTree) > 0 {
		node := int32(0)
		end := tile.Header.BvNodeCount
		tbmin := tile.Header.Bmin
		tbmax := tile.Header.Bmax
		qfac := tile.Header.BvQuantFactor

		// Calculate quantized box, clamped to the tile bounds.
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
				polyIdx := tile.BvTree[node].I
				if filter.PassFilter(&tile.Polys[polyIdx]) {
					polyRefs[n] = base | DtPolyRef(polyIdx)
					if n == batchSize-1 {
						query.process(tile, polyRefs[:], batchSize)
						n = 0
					} else {
						n++
					}
				}
			}

			if overlap || isLeafNode {
				node++
			} else {
				node += -tile.BvTree[node].I
			}
		}
	} else {
		for i := int32(0); i < tile.Header.PolyCount; i++ {
			p := &tile.Polys[i]
			// Do not return off-mesh connection polygons.
			if p.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
				continue
			}
			// Must pass filter
			if !filter.PassFilter(p) {
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
				polyRefs[n] = base | DtPolyRef(i)
				if n == batchSize-1 {
					query.process(tile, polyRefs[:], batchSize)
					n = 0
				} else {
					n++
				}
			}
		}
	}

	// Process the last polygons that didn't make a full batch.
	if n > 0 {
		query.process(tile, polyRefs[:], n)
	}
}

/// @name Path search.

// FindPath finds a polygon corridor from startRef to endRef.
//
// If the end polygon cannot be reached the last polygon in the path will
// be the nearest the search got to the end polygon, and the status has
// DT_PARTIAL_RESULT set. The same detail is set when the node pool runs
// out (together with DT_OUT_OF_NODES) or the path buffer is too small
// (DT_BUFFER_TOO_SMALL; the far end of the corridor is truncated).
func (q *DtNavMeshQuery) FindPath(startRef, endRef DtPolyRef, startPos, endPos common.Vec3,
	filter *DtQueryFilter, path []DtPolyRef) (pathCount int32, status DtStatus) {
	// Validate input
	if !q.m_nav.IsValidPolyRef(startRef) || !q.m_nav.IsValidPolyRef(endRef) ||
		!common.Visfinite(startPos) || !common.Visfinite(endPos) ||
		filter == nil || len(path) == 0 {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	maxPath := int32(len(path))

	if startRef == endRef {
		path[0] = startRef
		return 1, DT_SUCCESS
	}

	q.m_nodePool.Clear()
	q.m_openList.Reset()

	startNode := q.m_nodePool.GetNode(startRef, 0)
	startNode.Pos = startPos
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = common.Vdist(startPos, endPos) * H_SCALE
	startNode.Flags = DT_NODE_OPEN
	q.m_openList.Offer(startNode)

	lastBestNode := startNode
	lastBestNodeCost := startNode.Total

	outOfNodes := false

	for !q.m_openList.Empty() {
		// Remove node from open list and put it in closed list.
		bestNode := q.m_openList.Poll()
		bestNode.Flags &= ^uint32(DT_NODE_OPEN)
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == endRef {
			lastBestNode = bestNode
			break
		}

		// Get current poly and tile.
		// The API input has been checked already, skip checking internal data.
		bestRef := bestNode.Id
		bestTile, bestPoly := q.m_nav.GetTileAndPolyByRefUnsafe(bestRef)

		// Get parent ref.
		var parentRef DtPolyRef
		if bestNode.Pidx != 0 {
			parentRef = q.m_nodePool.GetNodeAtIdx(bestNode.Pidx).Id
		}

		for i := bestPoly.FirstLink; i != DT_NULL_LINK; i = bestTile.Links[i].Next {
			neighbourRef := bestTile.Links[i].Ref

			// Skip invalid ids and do not expand back to where we came from.
			if neighbourRef == 0 || neighbourRef == parentRef {
				continue
			}

			// Get neighbour poly and tile.
			// The API input has been checked already, skip checking internal data.
			neighbourTile, neighbourPoly := q.m_nav.GetTileAndPolyByRefUnsafe(neighbourRef)

			if !filter.PassFilter(neighbourPoly) {
				continue
			}

			// Deal explicitly with crossing tile boundaries.
			crossSide := uint32(0)
			if bestTile.Links[i].Side != 0xff {
				crossSide = uint32(bestTile.Links[i].Side) >> 1
			}

			// Get the node.
			neighbourNode := q.m_nodePool.GetNode(neighbourRef, crossSide)
			if neighbourNode == nil {
				outOfNodes = true
				continue
			}

			// If the node is visited the first time, calculate node position.
			if neighbourNode.Flags == 0 {
				pos, st := q.getEdgeMidPoint1(bestRef, bestPoly, bestTile,
					neighbourRef, neighbourPoly, neighbourTile)
				if !st.DtStatusFailed() {
					neighbourNode.Pos = pos
				}
			}

			// Calculate cost and heuristic.
			var cost, heuristic float32

			// Special case for last node.
			if neighbourRef == endRef {
				curCost := filter.GetCost(bestNode.Pos, neighbourNode.Pos, bestPoly)
				endCost := filter.GetCost(neighbourNode.Pos, endPos, neighbourPoly)
				cost = bestNode.Cost + curCost + endCost
				heuristic = 0
			} else {
				curCost := filter.GetCost(bestNode.Pos, neighbourNode.Pos, bestPoly)
				cost = bestNode.Cost + curCost
				heuristic = common.Vdist(neighbourNode.Pos, endPos) * H_SCALE
			}

			total := cost + heuristic

			// The node is already in open list and the new result is worse, skip.
			if (neighbourNode.Flags&DT_NODE_OPEN) != 0 && total >= neighbourNode.Total {
				continue
			}
			// The node is already visited and processed, and the new result is worse, skip.
			if (neighbourNode.Flags&DT_NODE_CLOSED) != 0 && total >= neighbourNode.Total {
				continue
			}

			// Add or update the node.
			neighbourNode.Pidx = q.m_nodePool.GetNodeIdx(bestNode)
			neighbourNode.Id = neighbourRef
			neighbourNode.Flags &= ^uint32(DT_NODE_CLOSED)
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				// Already in open, update node location.
				q.m_openList.Update(neighbourNode)
			} else {
				// Put the node in open list.
				neighbourNode.Flags |= DT_NODE_OPEN
				q.m_openList.Offer(neighbourNode)
			}

			// Update nearest node to target so far.
			if heuristic < lastBestNodeCost {
				lastBestNodeCost = heuristic
				lastBestNode = neighbourNode
			}
		}
	}

	pathCount, status = q.getPathToNode(lastBestNode, path, maxPath)

	if lastBestNode.Id != endRef {
		status |= DT_PARTIAL_RESULT
	}
	if outOfNodes {
		status |= DT_OUT_OF_NODES
	}

	return pathCount, status
}

// getPathToNode walks the parent chain back from endNode and writes the
// corridor start-to-end. When the buffer is too small the corridor keeps
// its start and truncates from the far end.
func (q *DtNavMeshQuery) getPathToNode(endNode *DtNode, path []DtPolyRef, maxPath int32) (pathCount int32, status DtStatus) {
	// Find the length of the entire path.
	curNode := endNode
	length := int32(0)
	for curNode != nil {
		length++
		curNode = q.m_nodePool.GetNodeAtIdx(curNode.Pidx)
	}

	// If the path cannot be fully stored then advance to the last node
	// we will be able to store.
	curNode = endNode
	writeCount := length
	for ; writeCount > maxPath; writeCount-- {
		curNode = q.m_nodePool.GetNodeAtIdx(curNode.Pidx)
	}

	// Write path
	for i := writeCount - 1; i >= 0; i-- {
		path[i] = curNode.Id
		curNode = q.m_nodePool.GetNodeAtIdx(curNode.Pidx)
	}

	pathCount = common.Min(length, maxPath)
	if length > maxPath {
		return pathCount, DT_SUCCESS | DT_BUFFER_TOO_SMALL
	}
	return pathCount, DT_SUCCESS
}

/// @name Portals.

// getPortalPoints returns the left/right endpoints of the portal between
// two adjacent polygons.
func (q *DtNavMeshQuery) getPortalPoints(from, to DtPolyRef) (left, right common.Vec3, fromType, toType uint8, status DtStatus) {
	fromTile, fromPoly, status := q.m_nav.GetTileAndPolyByRef(from)
	if status.DtStatusFailed() {
		return left, right, 0, 0, DT_FAILURE | DT_INVALID_PARAM
	}
	fromType = fromPoly.GetType()

	toTile, toPoly, status := q.m_nav.GetTileAndPolyByRef(to)
	if status.DtStatusFailed() {
		return left, right, 0, 0, DT_FAILURE | DT_INVALID_PARAM
	}
	toType = toPoly.GetType()

	left, right, status = q.getPortalPoints1(from, fromPoly, fromTile, to, toPoly, toTile)
	return left, right, fromType, toType, status
}

func (q *DtNavMeshQuery) getPortalPoints1(from DtPolyRef, fromPoly *DtPoly, fromTile *DtMeshTile,
	to DtPolyRef, toPoly *DtPoly, toTile *DtMeshTile) (left, right common.Vec3, status DtStatus) {
	// Find the link that points to the 'to' polygon.
	var link *DtLink
	for i := fromPoly.FirstLink; i != DT_NULL_LINK; i = fromTile.Links[i].Next {
		if fromTile.Links[i].Ref == to {
			link = &fromTile.Links[i]
			break
		}
	}
	if link == nil {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}

	// Handle off-mesh connections.
	if fromPoly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		// The portal collapses to the connection endpoint.
		v := common.GetVec3(fromTile.Verts, fromPoly.Verts[link.Edge])
		return v, v, DT_SUCCESS
	}
	if toPoly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
		for i := toPoly.FirstLink; i != DT_NULL_LINK; i = toTile.Links[i].Next {
			if toTile.Links[i].Ref == from {
				v := common.GetVec3(toTile.Verts, toPoly.Verts[toTile.Links[i].Edge])
				return v, v, DT_SUCCESS
			}
		}
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}

	// Find portal vertices.
	v0 := common.GetVec3(fromTile.Verts, fromPoly.Verts[link.Edge])
	v1 := common.GetVec3(fromTile.Verts, fromPoly.Verts[(link.Edge+1)%fromPoly.VertCount])
	left, right = v0, v1

	// If the link is at tile boundary, clamp the vertices to the link
	// width.
	if link.Side != 0xff {
		// Unpack portal limits.
		if link.Bmin != 0 || link.Bmax != 255 {
			s := float32(1.0 / 255.0)
			tmin := float32(link.Bmin) * s
			tmax := float32(link.Bmax) * s
			left = common.Vlerp(v0, v1, tmin)
			right = common.Vlerp(v0, v1, tmax)
		}
	}

	return left, right, DT_SUCCESS
}

// getEdgeMidPoint1 returns the midpoint of the portal between two
// adjacent polygons.
func (q *DtNavMeshQuery) getEdgeMidPoint1(from DtPolyRef, fromPoly *DtPoly, fromTile *DtMeshTile,
	to DtPolyRef, toPoly *DtPoly, toTile *DtMeshTile) (mid common.Vec3, status DtStatus) {
	left, right, status := q.getPortalPoints1(from, fromPoly, fromTile, to, toPoly, toTile)
	if status.DtStatusFailed() {
		return mid, DT_FAILURE | DT_INVALID_PARAM
	}
	return left.Add(right).Mul(0.5), DT_SUCCESS
}

/// @name Straight path.

// appendVertex adds a vertex to the straight path result, merging with
// the previous vertex when they are colocated.
func (q *DtNavMeshQuery) appendVertex(pos common.Vec3, flags uint8, ref DtPolyRef,
	straightPath []float32, straightPathFlags []uint8, straightPathRefs []DtPolyRef,
	straightPathCount, maxStraightPath int32) (int32, DtStatus) {
	if straightPathCount > 0 && common.Vequal(common.GetVec3(straightPath, straightPathCount-1), pos) {
		// The vertices are equal, update flags and poly.
		if len(straightPathFlags) > 0 {
			straightPathFlags[straightPathCount-1] = flags
		}
		if len(straightPathRefs) > 0 {
			straightPathRefs[straightPathCount-1] = ref
		}
		return straightPathCount, DT_IN_PROGRESS
	}

	// Append new vertex.
	common.SetVec3(straightPath, straightPathCount, pos)
	if len(straightPathFlags) > 0 {
		straightPathFlags[straightPathCount] = flags
	}
	if len(straightPathRefs) > 0 {
		straightPathRefs[straightPathCount] = ref
	}
	straightPathCount++

	// If there is no space to append more vertices, return.
	if straightPathCount >= maxStraightPath {
		return straightPathCount, DT_SUCCESS | DT_BUFFER_TOO_SMALL
	}
	// If reached end of path, return.
	if flags == DT_STRAIGHTPATH_END {
		return straightPathCount, DT_SUCCESS
	}
	return straightPathCount, DT_IN_PROGRESS
}

// appendPortals adds crossing vertices along the straight segment from
// the last appended vertex to endPos.
func (q *DtNavMeshQuery) appendPortals(startIdx, endIdx int32, endPos common.Vec3, path []DtPolyRef,
	straightPath []float32, straightPathFlags []uint8, straightPathRefs []DtPolyRef,
	straightPathCount, maxStraightPath, options int32) (int32, DtStatus) {
	startPos := common.GetVec3(straightPath, straightPathCount-1)
	// Append or update last vertex
	for i := startIdx; i < endIdx; i++ {
		// Calculate portal
		from := path[i]
		fromTile, fromPoly, status := q.m_nav.GetTileAndPolyByRef(from)
		if status.DtStatusFailed() {
			return straightPathCount, DT_FAILURE | DT_INVALID_PARAM
		}

		to := path[i+1]
		toTile, toPoly, status := q.m_nav.GetTileAndPolyByRef(to)
		if status.DtStatusFailed() {
			return straightPathCount, DT_FAILURE | DT_INVALID_PARAM
		}

		left, right, status := q.getPortalPoints1(from, fromPoly, fromTile, to, toPoly, toTile)
		if status.DtStatusFailed() {
			break
		}

		if options&DT_STRAIGHTPATH_AREA_CROSSINGS != 0 {
			// Skip intersection if only area crossings are requested.
			if fromPoly.GetArea() == toPoly.GetArea() {
				continue
			}
		}

		// Append intersection
		if _, t, ok := common.IntersectSegSeg2D(startPos, endPos, left, right); ok {
			pt := common.Vlerp(left, right, t)
			straightPathCount, status = q.appendVertex(pt, 0, path[i+1],
				straightPath, straightPathFlags, straightPathRefs,
				straightPathCount, maxStraightPath)
			if status != DT_IN_PROGRESS {
				return straightPathCount, status
			}
		}
	}
	return straightPathCount, DT_IN_PROGRESS
}

// FindStraightPath performs string pulling over a polygon corridor.
//
// The start position is clamped to the first polygon in the path, and
// the end position is clamped to the last. The returned polygon
// references identify the polygon being entered at the associated path
// position; the reference for the end point is always zero.
//
// If the result buffers are too small the path is filled as far as
// possible from the start toward the end position and the status has
// DT_BUFFER_TOO_SMALL set.
func (q *DtNavMeshQuery) FindStraightPath(startPos, endPos common.Vec3,
	path []DtPolyRef, pathSize int32,
	straightPath []float32, straightPathFlags []uint8, straightPathRefs []DtPolyRef,
	maxStraightPath int32, options int32) (straightPathCount int32, status DtStatus) {
	if !common.Visfinite(startPos) || !common.Visfinite(endPos) ||
		len(path) == 0 || pathSize <= 0 || int(pathSize) > len(path) || path[0] == 0 ||
		maxStraightPath <= 0 || len(straightPath) < int(maxStraightPath)*3 {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	closestStartPos, status := q.ClosestPointOnPolyBoundary(path[0], startPos)
	if status.DtStatusFailed() {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	closestEndPos, status := q.ClosestPointOnPolyBoundary(path[pathSize-1], endPos)
	if status.DtStatusFailed() {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}

	// Add start point.
	straightPathCount, status = q.appendVertex(closestStartPos, DT_STRAIGHTPATH_START, path[0],
		straightPath, straightPathFlags, straightPathRefs,
		straightPathCount, maxStraightPath)
	if status != DT_IN_PROGRESS {
		return straightPathCount, status
	}

	if pathSize > 1 {
		portalApex := closestStartPos
		portalLeft := portalApex
		portalRight := portalApex
		var apexIndex, leftIndex, rightIndex int32

		var leftPolyType, rightPolyType uint8

		leftPolyRef := path[0]
		rightPolyRef := path[0]

		for i := int32(0); i < pathSize; i++ {
			var left, right common.Vec3
			var toType uint8

			if i+1 < pathSize {
				// Next portal.
				left, right, _, toType, status = q.getPortalPoints(path[i], path[i+1])
				if status.DtStatusFailed() {
					// Failed to get portal points, in practice this means
					// that path[i+1] is an invalid polygon. Clamp the end
					// point to path[i] and return the path so far.
					closestEndPos, status = q.ClosestPointOnPolyBoundary(path[i], endPos)
					if status.DtStatusFailed() {
						// This should only happen when the first polygon is invalid.
						return straightPathCount, DT_FAILURE | DT_INVALID_PARAM
					}

					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						// Ignore status return value as we're just about to return anyway.
						straightPathCount, _ = q.appendPortals(apexIndex, i, closestEndPos, path,
							straightPath, straightPathFlags, straightPathRefs,
							straightPathCount, maxStraightPath, options)
					}

					// Ignore status return value as we're just about to return anyway.
					straightPathCount, _ = q.appendVertex(closestEndPos, 0, path[i],
						straightPath, straightPathFlags, straightPathRefs,
						straightPathCount, maxStraightPath)

					status = DT_SUCCESS | DT_PARTIAL_RESULT
					if straightPathCount >= maxStraightPath {
						status |= DT_BUFFER_TOO_SMALL
					}
					return straightPathCount, status
				}

				// If starting really close the portal, advance.
				if i == 0 {
					if _, d := common.DistancePtSegSqr2D(portalApex, left, right); d < common.Sqr(float32(0.001)) {
						continue
					}
				}
			} else {
				// End of the path.
				left = closestEndPos
				right = closestEndPos
				toType = DT_POLYTYPE_GROUND
			}

			// Right vertex.
			if common.TriArea2D(portalApex, portalRight, right) <= 0.0 {
				if common.Vequal(portalApex, portalRight) || common.TriArea2D(portalApex, portalLeft, right) > 0.0 {
					portalRight = right
					rightPolyRef = 0
					if i+1 < pathSize {
						rightPolyRef = path[i+1]
					}
					rightPolyType = toType
					rightIndex = i
				} else {
					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						straightPathCount, status = q.appendPortals(apexIndex, leftIndex, portalLeft, path,
							straightPath, straightPathFlags, straightPathRefs,
							straightPathCount, maxStraightPath, options)
						if status != DT_IN_PROGRESS {
							return straightPathCount, status
						}
					}

					portalApex = portalLeft
					apexIndex = leftIndex

					flags := uint8(0)
					if leftPolyRef == 0 {
						flags = DT_STRAIGHTPATH_END
					} else if leftPolyType == DT_POLYTYPE_OFFMESH_CONNECTION {
						flags = DT_STRAIGHTPATH_OFFMESH_CONNECTION
					}
					ref := leftPolyRef

					// Append or update vertex
					straightPathCount, status = q.appendVertex(portalApex, flags, ref,
						straightPath, straightPathFlags, straightPathRefs,
						straightPathCount, maxStraightPath)
					if status != DT_IN_PROGRESS {
						return straightPathCount, status
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}

			// Left vertex.
			if common.TriArea2D(portalApex, portalLeft, left) >= 0.0 {
				if common.Vequal(portalApex, portalLeft) || common.TriArea2D(portalApex, portalRight, left) < 0.0 {
					portalLeft = left
					leftPolyRef = 0
					if i+1 < pathSize {
						leftPolyRef = path[i+1]
					}
					leftPolyType = toType
					leftIndex = i
				} else {
					// Append portals along the current straight path segment.
					if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
						straightPathCount, status = q.appendPortals(apexIndex, rightIndex, portalRight, path,
							straightPath, straightPathFlags, straightPathRefs,
							straightPathCount, maxStraightPath, options)
						if status != DT_IN_PROGRESS {
							return straightPathCount, status
						}
					}

					portalApex = portalRight
					apexIndex = rightIndex

					flags := uint8(0)
					if rightPolyRef == 0 {
						flags = DT_STRAIGHTPATH_END
					} else if rightPolyType == DT_POLYTYPE_OFFMESH_CONNECTION {
						flags = DT_STRAIGHTPATH_OFFMESH_CONNECTION
					}
					ref := rightPolyRef

					// Append or update vertex
					straightPathCount, status = q.appendVertex(portalApex, flags, ref,
						straightPath, straightPathFlags, straightPathRefs,
						straightPathCount, maxStraightPath)
					if status != DT_IN_PROGRESS {
						return straightPathCount, status
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}
		}

		// Append portals along the current straight path segment.
		if options&(DT_STRAIGHTPATH_AREA_CROSSINGS|DT_STRAIGHTPATH_ALL_CROSSINGS) != 0 {
			straightPathCount, status = q.appendPortals(apexIndex, pathSize-1, closestEndPos, path,
				straightPath, straightPathFlags, straightPathRefs,
				straightPathCount, maxStraightPath, options)
			if status != DT_IN_PROGRESS {
				return straightPathCount, status
			}
		}
	}

	// Ignore status return value as we're just about to return anyway.
	straightPathCount, _ = q.appendVertex(closestEndPos, DT_STRAIGHTPATH_END, 0,
		straightPath, straightPathFlags, straightPathRefs,
		straightPathCount, maxStraightPath)

	status = DT_SUCCESS
	if straightPathCount >= maxStraightPath {
		status |= DT_BUFFER_TOO_SMALL
	}
	return straightPathCount, status
}

/// @name Surface movement.

// MoveAlongSurface moves from the start to the end position constrained
// to the navigation mesh surface, sliding along wall edges.
//
// The method is optimized for small delta movement and a small number of
// polygons. resultPos equals endPos when the end is reached, otherwise
// the closest reachable position. resultPos is not projected onto the
// surface; use GetPolyHeight for that. visited receives the polygons
// touched, start first.
func (q *DtNavMeshQuery) MoveAlongSurface(startRef DtPolyRef, startPos, endPos common.Vec3,
	filter *DtQueryFilter, visited []DtPolyRef) (resultPos common.Vec3, visitedCount int32, status DtStatus) {
	if !q.m_nav.IsValidPolyRef(startRef) ||
		!common.Visfinite(startPos) || !common.Visfinite(endPos) ||
		filter == nil || len(visited) == 0 {
		return resultPos, 0, DT_FAILURE | DT_INVALID_PARAM
	}
	maxVisitedSize := int32(len(visited))

	status = DT_SUCCESS

	const MAX_STACK = 48
	var stack [MAX_STACK]*DtNode
	nstack := 0

	q.m_tinyNodePool.Clear()

	startNode := q.m_tinyNodePool.GetNode(startRef, 0)
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = 0
	startNode.Flags = DT_NODE_CLOSED
	stack[nstack] = startNode
	nstack++

	bestDist := float32(math.MaxFloat32)
	bestPos := startPos
	var bestNode *DtNode

	// Search constraints
	searchPos := common.Vlerp(startPos, endPos, 0.5)
	searchRadSqr := common.Sqr(common.Vdist(startPos, endPos)/2.0 + 0.001)

	var verts [DT_VERTS_PER_POLYGON * 3]float32

	for nstack > 0 {
		// Pop front.
		curNode := stack[0]
		for i := 0; i < nstack-1; i++ {
			stack[i] = stack[i+1]
		}
		nstack--

		// Get poly and tile.
		// The API input has been checked already, skip checking internal data.
		curRef := curNode.Id
		curTile, curPoly := q.m_nav.GetTileAndPolyByRefUnsafe(curRef)

		// Collect vertices.
		nverts := int32(curPoly.VertCount)
		for i := int32(0); i < nverts; i++ {
			common.SetVec3(verts[:], i, common.GetVec3(curTile.Verts, curPoly.Verts[i]))
		}

		// If target is inside the poly, stop search.
		if common.PointInPolygon(endPos, verts[:], int(nverts)) {
			bestNode = curNode
			bestPos = endPos
			break
		}

		// Find wall edges and find nearest point inside the walls.
		j := int(curPoly.VertCount) - 1
		for i := 0; i < int(curPoly.VertCount); j, i = i, i+1 {
			// Find links to neighbours.
			const MAX_NEIS = 8
			nneis := 0
			var neis [MAX_NEIS]DtPolyRef

			if curPoly.Neis[j]&DT_EXT_LINK != 0 {
				// Tile border.
				for k := curPoly.FirstLink; k != DT_NULL_LINK; k = curTile.Links[k].Next {
					link := &curTile.Links[k]
					if int(link.Edge) == j && link.Ref != 0 {
						_, neiPoly := q.m_nav.GetTileAndPolyByRefUnsafe(link.Ref)
						if filter.PassFilter(neiPoly) && nneis < MAX_NEIS {
							neis[nneis] = link.Ref
							nneis++
						}
					}
				}
			} else if curPoly.Neis[j] != 0 {
				idx := uint32(curPoly.Neis[j] - 1)
				if filter.PassFilter(&curTile.Polys[idx]) {
					// Internal edge, encode id.
					neis[nneis] = q.m_nav.GetPolyRefBase(curTile) | DtPolyRef(idx)
					nneis++
				}
			}

			if nneis == 0 {
				// Wall edge, calc distance.
				vj := common.GetVec3(verts[:], j)
				vi := common.GetVec3(verts[:], i)
				tseg, distSqr := common.DistancePtSegSqr2D(endPos, vj, vi)
				if distSqr < bestDist {
					// Update nearest distance.
					bestPos = common.Vlerp(vj, vi, tseg)
					bestDist = distSqr
					bestNode = curNode
				}
				continue
			}

			for k := 0; k < nneis; k++ {
				// Skip if no node can be allocated.
				neighbourNode := q.m_tinyNodePool.GetNode(neis[k], 0)
				if neighbourNode == nil {
					continue
				}
				// Skip if already visited.
				if neighbourNode.Flags&DT_NODE_CLOSED != 0 {
					continue
				}

				// Skip the link if it is too far from search constraint.
				vj := common.GetVec3(verts[:], j)
				vi := common.GetVec3(verts[:], i)
				if _, distSqr := common.DistancePtSegSqr2D(searchPos, vj, vi); distSqr > searchRadSqr {
					continue
				}

				// Mark the node as visited and push to queue.
				if nstack < MAX_STACK {
					neighbourNode.Pidx = q.m_tinyNodePool.GetNodeIdx(curNode)
					neighbourNode.Flags |= DT_NODE_CLOSED
					stack[nstack] = neighbourNode
					nstack++
				}
			}
		}
	}

	n := int32(0)
	if bestNode != nil {
		// Reverse the path.
		var prev *DtNode
		node := bestNode
		for node != nil {
			next := q.m_tinyNodePool.GetNodeAtIdx(node.Pidx)
			node.Pidx = q.m_tinyNodePool.GetNodeIdx(prev)
			prev = node
			node = next
		}

		// Store result
		for node = prev; node != nil; node = q.m_tinyNodePool.GetNodeAtIdx(node.Pidx) {
			visited[n] = node.Id
			n++
			if n >= maxVisitedSize {
				status |= DT_BUFFER_TOO_SMALL
				break
			}
		}
	}

	return bestPos, n, status
}
