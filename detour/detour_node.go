package detour

import (
	"container/heap"

	"tilednav/common"
)

const (
	DT_NODE_OPEN   = 0x01
	DT_NODE_CLOSED = 0x02
)

type DtNodeIndex uint32

const DT_NULL_IDX = DtNodeIndex(0xffffffff)

// DtNode is one entry of the bounded search node pool.
type DtNode struct {
	Pos   common.Vec3 ///< Position of the node.
	Cost  float32     ///< Cost from previous node to current node.
	Total float32     ///< Cost up to the node plus heuristic.
	Pidx  uint32      ///< Index of the parent node plus one. (0 means "none".)
	State uint32      ///< Extra state; a poly ref can have one node per state.
	Flags uint32      ///< A combination of DT_NODE_OPEN / DT_NODE_CLOSED.
	Id    DtPolyRef   ///< Polygon ref the node corresponds to.

	heapIdx int    // position in the open list heap, -1 when absent
	seq     uint64 // open list insertion order, ties on Total break FIFO
	poolIdx int32  // index within the owning pool
}

// DtNodePool is a fixed-capacity pool of search nodes with a hash chain
// lookup by polygon reference. When the pool is exhausted GetNode returns
// nil and the caller degrades to a partial result.
type DtNodePool struct {
	m_nodes     []DtNode
	m_first     []DtNodeIndex
	m_next      []DtNodeIndex
	m_maxNodes  int32
	m_hashSize  int32
	m_nodeCount int32
}

func dtHashRef(a DtPolyRef) uint32 {
	a += ^(a << 15)
	a ^= a >> 10
	a += a << 3
	a ^= a >> 6
	a += ^(a << 11)
	a ^= a >> 16
	return uint32(a)
}

func NewDtNodePool(maxNodes, hashSize int32) *DtNodePool {
	common.AssertTrue(common.NextPow2(uint32(hashSize)) == uint32(hashSize))
	// pidx is special as 0 means "none" and 1 is the first node. For that
	// reason we have 1 fewer nodes available than the number of values it
	// can contain.
	common.AssertTrue(maxNodes > 0 && uint32(maxNodes) < uint32(DT_NULL_IDX))

	p := &DtNodePool{
		m_maxNodes: maxNodes,
		m_hashSize: hashSize,
		m_nodes:    make([]DtNode, maxNodes),
		m_next:     make([]DtNodeIndex, maxNodes),
		m_first:    make([]DtNodeIndex, hashSize),
	}
	for i := range p.m_next {
		p.m_next[i] = DT_NULL_IDX
	}
	for i := range p.m_first {
		p.m_first[i] = DT_NULL_IDX
	}
	return p
}

func (p *DtNodePool) GetMaxNodes() int32  { return p.m_maxNodes }
func (p *DtNodePool) GetHashSize() int32  { return p.m_hashSize }
func (p *DtNodePool) GetNodeCount() int32 { return p.m_nodeCount }

func (p *DtNodePool) Clear() {
	for i := range p.m_first {
		p.m_first[i] = DT_NULL_IDX
	}
	p.m_nodeCount = 0
}

// GetNodeIdx returns the 1-based pool index for the node, or 0 for nil.
func (p *DtNodePool) GetNodeIdx(node *DtNode) uint32 {
	if node == nil {
		return 0
	}
	return uint32(node.poolIdx) + 1
}

// GetNodeAtIdx resolves a 1-based pool index; 0 yields nil.
func (p *DtNodePool) GetNodeAtIdx(idx uint32) *DtNode {
	if idx == 0 {
		return nil
	}
	return &p.m_nodes[idx-1]
}

// FindNode returns the existing node for (id, state), or nil.
func (p *DtNodePool) FindNode(id DtPolyRef, state uint32) *DtNode {
	bucket := dtHashRef(id) & uint32(p.m_hashSize-1)
	i := p.m_first[bucket]
	for i != DT_NULL_IDX {
		if p.m_nodes[i].Id == id && p.m_nodes[i].State == state {
			return &p.m_nodes[i]
		}
		i = p.m_next[i]
	}
	return nil
}

// FindNodes collects every node allocated for id regardless of state.
func (p *DtNodePool) FindNodes(id DtPolyRef, maxNodes int) []*DtNode {
	var nodes []*DtNode
	bucket := dtHashRef(id) & uint32(p.m_hashSize-1)
	i := p.m_first[bucket]
	for i != DT_NULL_IDX {
		if p.m_nodes[i].Id == id {
			if len(nodes) >= maxNodes {
				break
			}
			nodes = append(nodes, &p.m_nodes[i])
		}
		i = p.m_next[i]
	}
	return nodes
}

// GetNode returns the node for (id, state), allocating it on first use.
// Returns nil when the pool is full.
func (p *DtNodePool) GetNode(id DtPolyRef, state uint32) *DtNode {
	bucket := dtHashRef(id) & uint32(p.m_hashSize-1)
	i := p.m_first[bucket]
	for i != DT_NULL_IDX {
		if p.m_nodes[i].Id == id && p.m_nodes[i].State == state {
			return &p.m_nodes[i]
		}
		i = p.m_next[i]
	}

	if p.m_nodeCount >= p.m_maxNodes {
		return nil
	}

	i = DtNodeIndex(p.m_nodeCount)
	p.m_nodeCount++

	node := &p.m_nodes[i]
	*node = DtNode{Id: id, State: state, poolIdx: int32(i), heapIdx: -1}

	p.m_next[i] = p.m_first[bucket]
	p.m_first[bucket] = i
	return node
}

// dtNodeQueue is the A* open list: a binary heap on Total with a FIFO
// tie-break on equal totals so repeated identical queries expand nodes in
// the same order.
type dtNodeQueue struct {
	h   nodeHeap
	seq uint64
}

func newDtNodeQueue() *dtNodeQueue { return &dtNodeQueue{} }

func (q *dtNodeQueue) Reset() {
	q.h = q.h[:0]
	q.seq = 0
}

func (q *dtNodeQueue) Empty() bool { return len(q.h) == 0 }

// Offer inserts the node, stamping its insertion order.
func (q *dtNodeQueue) Offer(node *DtNode) {
	q.seq++
	node.seq = q.seq
	heap.Push(&q.h, node)
}

// Poll removes and returns the node with the lowest total cost.
func (q *dtNodeQueue) Poll() *DtNode {
	return heap.Pop(&q.h).(*DtNode)
}

// Update re-sorts a node already in the queue after its total changed.
// The original insertion stamp is kept.
func (q *dtNodeQueue) Update(node *DtNode) {
	heap.Fix(&q.h, node.heapIdx)
}

type nodeHeap []*DtNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].Total != h[j].Total {
		return h[i].Total < h[j].Total
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *nodeHeap) Push(x any) {
	node := x.(*DtNode)
	node.heapIdx = len(*h)
	*h = append(*h, node)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.heapIdx = -1
	*h = old[:n-1]
	return node
}
