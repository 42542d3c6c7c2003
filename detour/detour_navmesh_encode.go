package detour

import (
	"fmt"

	"tilednav/common/rw"
)

// NavMeshData is the parsed form of one tile's wire blob: everything a
// tile needs except the links, which are rebuilt by DtNavMesh on add.
// The blob is produced by an external generation pipeline; this engine
// only consumes it.
type NavMeshData struct {
	Header      *DtMeshHeader
	NavVerts    []float32
	NavPolys    []DtPoly
	NavBvtree   []DtBVNode
	OffMeshCons []DtOffMeshConnection

	// Link slots; contents are ignored on load and rebuilt, the count
	// just reserves space (Header.MaxLinkCount).
	Links []DtLink
}

// Wire sizes in bytes of one element of each tile section.
const (
	vertWireSize       = 3 * 4
	polyWireSize       = 4 + 2*2*DT_VERTS_PER_POLYGON + 2 + 1 + 1
	linkWireSize       = 8 + 4 + 4
	bvNodeWireSize     = 3*2 + 3*2 + 4
	offMeshConWireSize = 6*4 + 4 + 2 + 1 + 1 + 4
)

func (d *DtMeshHeader) toBin(w *rw.ReaderWriter) {
	w.WriteInt32(d.Magic)
	w.WriteInt32(d.Version)
	w.WriteInt32(d.X)
	w.WriteInt32(d.Y)
	w.WriteInt32(d.Layer)
	w.WriteUInt32(d.UserId)
	w.WriteInt32(d.PolyCount)
	w.WriteInt32(d.VertCount)
	w.WriteInt32(d.MaxLinkCount)
	w.WriteInt32(d.BvNodeCount)
	w.WriteInt32(d.OffMeshConCount)
	w.WriteInt32(d.OffMeshBase)
	w.WriteFloat32(d.WalkableHeight)
	w.WriteFloat32(d.WalkableRadius)
	w.WriteFloat32(d.WalkableClimb)
	w.WriteFloat32s(d.Bmin[:])
	w.WriteFloat32s(d.Bmax[:])
	w.WriteFloat32(d.BvQuantFactor)
}

func (d *DtMeshHeader) fromBin(r *rw.ReaderWriter) {
	d.Magic = r.ReadInt32()
	d.Version = r.ReadInt32()
	d.X = r.ReadInt32()
	d.Y = r.ReadInt32()
	d.Layer = r.ReadInt32()
	d.UserId = r.ReadUInt32()
	d.PolyCount = r.ReadInt32()
	d.VertCount = r.ReadInt32()
	d.MaxLinkCount = r.ReadInt32()
	d.BvNodeCount = r.ReadInt32()
	d.OffMeshConCount = r.ReadInt32()
	d.OffMeshBase = r.ReadInt32()
	d.WalkableHeight = r.ReadFloat32()
	d.WalkableRadius = r.ReadFloat32()
	d.WalkableClimb = r.ReadFloat32()
	r.ReadFloat32s(d.Bmin[:])
	r.ReadFloat32s(d.Bmax[:])
	d.BvQuantFactor = r.ReadFloat32()
}

func (d *DtPoly) toBin(w *rw.ReaderWriter) {
	w.WriteUInt32(d.FirstLink)
	w.WriteUInt16s(d.Verts[:])
	w.WriteUInt16s(d.Neis[:])
	w.WriteUInt16(d.Flags)
	w.WriteUInt8(d.VertCount)
	w.WriteUInt8(d.AreaAndtype)
}

func (d *DtPoly) fromBin(r *rw.ReaderWriter) {
	d.FirstLink = r.ReadUInt32()
	r.ReadUInt16s(d.Verts[:])
	r.ReadUInt16s(d.Neis[:])
	d.Flags = r.ReadUInt16()
	d.VertCount = r.ReadUInt8()
	d.AreaAndtype = r.ReadUInt8()
}

func (d *DtLink) toBin(w *rw.ReaderWriter) {
	w.WriteUInt64(uint64(d.Ref))
	w.WriteUInt32(d.Next)
	w.WriteUInt8(d.Edge)
	w.WriteUInt8(d.Side)
	w.WriteUInt8(d.Bmin)
	w.WriteUInt8(d.Bmax)
}

func (d *DtLink) fromBin(r *rw.ReaderWriter) {
	d.Ref = DtPolyRef(r.ReadUInt64())
	d.Next = r.ReadUInt32()
	d.Edge = r.ReadUInt8()
	d.Side = r.ReadUInt8()
	d.Bmin = r.ReadUInt8()
	d.Bmax = r.ReadUInt8()
}

func (d *DtBVNode) toBin(w *rw.ReaderWriter) {
	w.WriteUInt16s(d.Bmin[:])
	w.WriteUInt16s(d.Bmax[:])
	w.WriteInt32(d.I)
}

func (d *DtBVNode) fromBin(r *rw.ReaderWriter) {
	r.ReadUInt16s(d.Bmin[:])
	r.ReadUInt16s(d.Bmax[:])
	d.I = r.ReadInt32()
}

func (d *DtOffMeshConnection) toBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(d.Pos[:])
	w.WriteFloat32(d.Rad)
	w.WriteUInt16(d.Poly)
	w.WriteUInt8(d.Flags)
	w.WriteUInt8(d.Side)
	w.WriteUInt32(d.UserId)
}

func (d *DtOffMeshConnection) fromBin(r *rw.ReaderWriter) {
	r.ReadFloat32s(d.Pos[:])
	d.Rad = r.ReadFloat32()
	d.Poly = r.ReadUInt16()
	d.Flags = r.ReadUInt8()
	d.Side = r.ReadUInt8()
	d.UserId = r.ReadUInt32()
}

// ToBin serializes the tile to the little-endian wire format.
func (d *NavMeshData) ToBin() []byte {
	w := rw.NewWriter()
	d.Header.toBin(w)
	w.WriteFloat32s(d.NavVerts)
	for i := range d.NavPolys {
		d.NavPolys[i].toBin(w)
	}
	for i := range d.Links {
		d.Links[i].toBin(w)
	}
	for i := range d.NavBvtree {
		d.NavBvtree[i].toBin(w)
	}
	for i := range d.OffMeshCons {
		d.OffMeshCons[i].toBin(w)
	}
	return w.Bytes()
}

// FromBin parses a tile wire blob. The header is validated before any
// section is allocated, so malformed input fails cleanly.
func (d *NavMeshData) FromBin(data []byte) error {
	r := rw.NewReader(data)
	header := &DtMeshHeader{}
	header.fromBin(r)
	if err := r.Err(); err != nil {
		return fmt.Errorf("tile header truncated: %w", err)
	}
	if header.Magic != DT_NAVMESH_MAGIC {
		return (DT_FAILURE | DT_WRONG_MAGIC).Error()
	}
	if header.Version != DT_NAVMESH_VERSION {
		return (DT_FAILURE | DT_WRONG_VERSION).Error()
	}
	if header.PolyCount < 0 || header.VertCount < 0 || header.MaxLinkCount < 0 ||
		header.BvNodeCount < 0 || header.OffMeshConCount < 0 || header.OffMeshBase < 0 {
		return (DT_FAILURE | DT_INVALID_PARAM).Error()
	}

	// Every section has a fixed wire size, so the counts are bounded by
	// the bytes left after the header. Checked in 64 bits before any
	// allocation, so a hostile count can neither wrap nor over-allocate.
	need := int64(header.VertCount)*vertWireSize +
		int64(header.PolyCount)*polyWireSize +
		int64(header.MaxLinkCount)*linkWireSize +
		int64(header.BvNodeCount)*bvNodeWireSize +
		int64(header.OffMeshConCount)*offMeshConWireSize
	if need > int64(r.Size()) {
		return (DT_FAILURE | DT_INVALID_PARAM).Error()
	}

	d.Header = header
	d.NavVerts = make([]float32, header.VertCount*3)
	r.ReadFloat32s(d.NavVerts)
	d.NavPolys = make([]DtPoly, header.PolyCount)
	for i := range d.NavPolys {
		d.NavPolys[i].fromBin(r)
	}
	d.Links = make([]DtLink, header.MaxLinkCount)
	for i := range d.Links {
		d.Links[i].fromBin(r)
	}
	d.NavBvtree = make([]DtBVNode, header.BvNodeCount)
	for i := range d.NavBvtree {
		d.NavBvtree[i].fromBin(r)
	}
	d.OffMeshCons = make([]DtOffMeshConnection, header.OffMeshConCount)
	for i := range d.OffMeshCons {
		d.OffMeshCons[i].fromBin(r)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("tile data truncated: %w", err)
	}
	return nil
}
