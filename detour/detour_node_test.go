package detour

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodePoolAllocAndFind(t *testing.T) {
	pool := NewDtNodePool(32, 8)

	n1 := pool.GetNode(10, 0)
	require.NotNil(t, n1)
	require.Equal(t, DtPolyRef(10), n1.Id)

	// Same ref and state yields the same node.
	require.Same(t, n1, pool.GetNode(10, 0))
	require.Equal(t, int32(1), pool.GetNodeCount())

	// A different state is a distinct node.
	n2 := pool.GetNode(10, 1)
	require.NotSame(t, n1, n2)
	require.Equal(t, int32(2), pool.GetNodeCount())

	require.Same(t, n1, pool.FindNode(10, 0))
	require.Nil(t, pool.FindNode(99, 0))
	require.Len(t, pool.FindNodes(10, 4), 2)

	// Index round trip; 0 means "none".
	require.Equal(t, uint32(0), pool.GetNodeIdx(nil))
	idx := pool.GetNodeIdx(n1)
	require.NotZero(t, idx)
	require.Same(t, n1, pool.GetNodeAtIdx(idx))
	require.Nil(t, pool.GetNodeAtIdx(0))
}

func TestNodePoolExhaustion(t *testing.T) {
	pool := NewDtNodePool(2, 2)
	require.NotNil(t, pool.GetNode(1, 0))
	require.NotNil(t, pool.GetNode(2, 0))
	require.Nil(t, pool.GetNode(3, 0))

	// Existing nodes are still reachable when full.
	require.NotNil(t, pool.GetNode(1, 0))

	pool.Clear()
	require.Equal(t, int32(0), pool.GetNodeCount())
	require.NotNil(t, pool.GetNode(3, 0))
}

func TestNodeQueueOrdering(t *testing.T) {
	pool := NewDtNodePool(8, 4)
	q := newDtNodeQueue()

	a := pool.GetNode(1, 0)
	a.Total = 3
	b := pool.GetNode(2, 0)
	b.Total = 1
	c := pool.GetNode(3, 0)
	c.Total = 2

	q.Offer(a)
	q.Offer(b)
	q.Offer(c)

	require.Same(t, b, q.Poll())
	require.Same(t, c, q.Poll())
	require.Same(t, a, q.Poll())
	require.True(t, q.Empty())
}

func TestNodeQueueFIFOTieBreak(t *testing.T) {
	pool := NewDtNodePool(8, 4)
	q := newDtNodeQueue()

	var nodes []*DtNode
	for i := DtPolyRef(1); i <= 4; i++ {
		n := pool.GetNode(i, 0)
		n.Total = 5
		q.Offer(n)
		nodes = append(nodes, n)
	}

	// Equal totals come out in insertion order.
	for _, want := range nodes {
		require.Same(t, want, q.Poll())
	}
}

func TestNodeQueueUpdate(t *testing.T) {
	pool := NewDtNodePool(8, 4)
	q := newDtNodeQueue()

	a := pool.GetNode(1, 0)
	a.Total = 10
	b := pool.GetNode(2, 0)
	b.Total = 5

	q.Offer(a)
	q.Offer(b)

	a.Total = 1
	q.Update(a)

	require.Same(t, a, q.Poll())
	require.Same(t, b, q.Poll())
}
