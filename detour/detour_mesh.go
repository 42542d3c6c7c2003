package detour

import (
	"tilednav/common"
)

const (
	/// The maximum number of vertices per navigation polygon.
	DT_VERTS_PER_POLYGON = 6

	/// A value that indicates the entity does not link to anything.
	DT_NULL_LINK = 0xffffffff

	/// A flag that indicates that an entity links to an external entity.
	/// (E.g. A polygon edge is a portal that links to another polygon.)
	DT_EXT_LINK = 0x8000

	/// A flag that indicates that an off-mesh connection can be traversed in both directions.
	DT_OFFMESH_CON_BIDIR = 1

	/// A magic number used to detect compatibility of navigation tile data.
	DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

	/// A version number used to detect compatibility of navigation tile data.
	DT_NAVMESH_VERSION = 7

	/// The maximum number of user defined area ids.
	DT_MAX_AREAS = 64
)

const (
	/// The polygon is a standard convex polygon that is part of the surface of the mesh.
	DT_POLYTYPE_GROUND = 0
	/// The polygon is an off-mesh connection consisting of two vertices.
	DT_POLYTYPE_OFFMESH_CONNECTION = 1
)

const (
	/// The navigation mesh owns the tile memory and is responsible for freeing it.
	DT_TILE_FREE_DATA = 0x01
)

// Polygon and tile references pack (salt, tile index, poly index) into a
// 64-bit handle. The salt changes whenever a tile slot is reused, so a
// reference held across a tile reload is detectably stale instead of
// silently aliasing the new occupant.
const (
	DT_SALT_BITS = 16
	DT_TILE_BITS = 28
	DT_POLY_BITS = 20
)

// DtPolyRef is an opaque handle to a polygon within a navigation mesh.
type DtPolyRef uint64

// DtTileRef is an opaque handle to a tile within a navigation mesh.
type DtTileRef uint64

// Defines a polygon within a DtMeshTile object.
type DtPoly struct {
	/// Index to first link in linked list. (Or #DT_NULL_LINK if there is no link.)
	FirstLink uint32

	/// The indices of the polygon's vertices.
	/// The actual vertices are located in DtMeshTile::Verts.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Packed data representing neighbor polygons references and flags for each edge.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	/// The bit packed area id and polygon type.
	AreaAndtype uint8
}

// Sets the user defined area id. [Limit: < #DT_MAX_AREAS]
func (p *DtPoly) SetArea(a uint8) { p.AreaAndtype = (p.AreaAndtype & 0xc0) | (a & 0x3f) }

// Sets the polygon type.
func (p *DtPoly) SetType(t uint8) { p.AreaAndtype = (p.AreaAndtype & 0x3f) | (t << 6) }

// Gets the user defined area id.
func (p *DtPoly) GetArea() uint8 { return p.AreaAndtype & 0x3f }

// Gets the polygon type.
func (p *DtPoly) GetType() uint8 { return p.AreaAndtype >> 6 }

// Defines a link between polygons.
// This structure is rarely if ever used by the end user.
type DtLink struct {
	Ref  DtPolyRef ///< Neighbour reference. (The neighbor that is linked to.)
	Next uint32    ///< Index of the next link.
	Edge uint8     ///< Index of the polygon edge that owns this link.
	Side uint8     ///< If a boundary link, defines on which side the link is.
	Bmin uint8     ///< If a boundary link, defines the minimum sub-edge area.
	Bmax uint8     ///< If a boundary link, defines the maximum sub-edge area.
}

// Bounding volume node. Bounds are quantized relative to the tile AABB so
// the whole tree fits in 16-bit coordinates.
type DtBVNode struct {
	Bmin [3]uint16 ///< Minimum bounds of the node's AABB. [(x, y, z)]
	Bmax [3]uint16 ///< Maximum bounds of the node's AABB. [(x, y, z)]
	I    int32     ///< The node's index. (Negative for escape sequence.)
}

// Defines a navigation mesh off-mesh connection within a DtMeshTile object.
// An off-mesh connection is a user defined traversable connection made up of two vertices.
type DtOffMeshConnection struct {
	/// The endpoints of the connection. [(ax, ay, az, bx, by, bz)]
	Pos [6]float32

	/// The radius of the endpoints. [Limit: >= 0]
	Rad float32

	/// The polygon reference of the connection within the tile.
	Poly uint16

	/// Internal link flags (e.g. #DT_OFFMESH_CON_BIDIR). Not the user
	/// defined polygon flags; those live on the connection's DtPoly.
	Flags uint8

	/// End point side.
	Side uint8

	/// The id of the offmesh connection. (User assigned when the navigation mesh is built.)
	UserId uint32
}

// Provides high level information related to a DtMeshTile object.
type DtMeshHeader struct {
	Magic           int32  ///< Tile magic number. (Used to identify the data format.)
	Version         int32  ///< Tile data format version number.
	X               int32  ///< The x-position of the tile within the tile grid. (x, y, layer)
	Y               int32  ///< The y-position of the tile within the tile grid. (x, y, layer)
	Layer           int32  ///< The layer of the tile within the tile grid. (x, y, layer)
	UserId          uint32 ///< The user defined id of the tile.
	PolyCount       int32  ///< The number of polygons in the tile.
	VertCount       int32  ///< The number of vertices in the tile.
	MaxLinkCount    int32  ///< The number of allocated links.
	BvNodeCount     int32  ///< The number of bounding volume nodes. (Zero if bounding volumes are disabled.)
	OffMeshConCount int32  ///< The number of off-mesh connections.
	OffMeshBase     int32  ///< The index of the first polygon which is an off-mesh connection.

	WalkableHeight float32 ///< The height of the agents using the tile.
	WalkableRadius float32 ///< The radius of the agents using the tile.
	WalkableClimb  float32 ///< The maximum climb height of the agents using the tile.

	Bmin common.Vec3 ///< The minimum bounds of the tile's AABB.
	Bmax common.Vec3 ///< The maximum bounds of the tile's AABB.

	/// The bounding volume quantization factor.
	BvQuantFactor float32
}

// Defines a navigation mesh tile. The structural data is immutable once
// loaded; the link lists are patched by the owning DtNavMesh as neighbour
// tiles come and go.
type DtMeshTile struct {
	salt uint32 ///< Counter describing modifications to the tile.
	idx  int32  ///< Slot index within the owning mesh.

	linksFreeList uint32        ///< Index to the next free link.
	Header        *DtMeshHeader ///< The tile header. (Nil for unused slots.)
	Polys         []DtPoly      ///< The tile polygons. [Size: Header.PolyCount]
	Verts         []float32     ///< The tile vertices. [(x, y, z) * Header.VertCount]
	Links         []DtLink      ///< The tile links. [Size: Header.MaxLinkCount]

	/// The tile bounding volume nodes. [Size: Header.BvNodeCount]
	/// (Empty if bounding volumes are disabled.)
	BvTree []DtBVNode

	OffMeshCons []DtOffMeshConnection ///< The tile off-mesh connections. [Size: Header.OffMeshConCount]
	Flags       int32                 ///< Tile flags. (See: #DT_TILE_FREE_DATA)
	Next        *DtMeshTile           ///< The next free tile, or the next tile in the spatial grid.

	Data *NavMeshData ///< The source data the tile was loaded from.
}

// Configuration parameters used to define multi-tile navigation meshes.
// The values are used to allocate space during the initialization of a
// navigation mesh.
type NavMeshParams struct {
	Orig       common.Vec3 ///< The world space origin of the navigation mesh's tile space.
	TileWidth  float32     ///< The width of each tile. (Along the x-axis.)
	TileHeight float32     ///< The height of each tile. (Along the z-axis.)
	MaxTiles   int32       ///< The maximum number of tiles the navigation mesh can contain.
	MaxPolys   int32       ///< The maximum number of polygons each tile can contain.
}
