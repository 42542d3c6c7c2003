package detour

import (
	"tilednav/common"
)

// DtQueryFilter selects which polygons a query may traverse and how much
// each area type costs to cross. A filter is owned by the caller, passed
// by reference into every query and never mutated by the query itself.
type DtQueryFilter struct {
	m_areaCost     [DT_MAX_AREAS]float32 ///< Cost per area type.
	m_includeFlags uint16                ///< Flags for polygons that can be visited.
	m_excludeFlags uint16                ///< Flags for polygons that should not be visited.
}

// NewDtQueryFilter returns a filter that includes everything, excludes
// nothing, and costs every area at 1.0.
func NewDtQueryFilter() *DtQueryFilter {
	filter := &DtQueryFilter{
		m_includeFlags: 0xffff,
		m_excludeFlags: 0,
	}
	for i := range filter.m_areaCost {
		filter.m_areaCost[i] = 1.0
	}
	return filter
}

// Returns the traversal cost of the area.
func (filter *DtQueryFilter) GetAreaCost(i int) float32 { return filter.m_areaCost[i] }

// Sets the traversal cost of the area.
func (filter *DtQueryFilter) SetAreaCost(i int, cost float32) { filter.m_areaCost[i] = cost }

// Returns the include flags for the filter. Any polygons that include one
// or more of these flags will be included in the operation.
func (filter *DtQueryFilter) GetIncludeFlags() uint16 { return filter.m_includeFlags }

// Sets the include flags for the filter.
func (filter *DtQueryFilter) SetIncludeFlags(flags uint16) { filter.m_includeFlags = flags }

// Returns the exclude flags for the filter. Any polygons that include one
// or more of these flags will be excluded from the operation.
func (filter *DtQueryFilter) GetExcludeFlags() uint16 { return filter.m_excludeFlags }

// Sets the exclude flags for the filter.
func (filter *DtQueryFilter) SetExcludeFlags(flags uint16) { filter.m_excludeFlags = flags }

// PassFilter reports whether the polygon is traversable under this filter.
func (filter *DtQueryFilter) PassFilter(poly *DtPoly) bool {
	return (poly.Flags&filter.m_includeFlags) != 0 && (poly.Flags&filter.m_excludeFlags) == 0
}

// GetCost returns the cost of moving from pa to pb across curPoly.
func (filter *DtQueryFilter) GetCost(pa, pb common.Vec3, curPoly *DtPoly) float32 {
	return common.Vdist(pa, pb) * filter.m_areaCost[curPoly.GetArea()]
}
