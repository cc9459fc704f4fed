package bvh

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is an interior node when LeafCount is zero; Left and Right then index
// into Tree.Nodes. Leaves reference the caller's AABB slice via LeafFirst.
type Node struct {
	Min       mgl32.Vec3
	Max       mgl32.Vec3
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *Node) IsLeaf() bool {
	return n.LeafCount > 0
}

type Tree struct {
	Nodes []Node
}

type AABBItem struct {
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Centroid mgl32.Vec3
	Index    int
}

type TLASBuilder struct{}

func (b *TLASBuilder) Build(aabbs [][2]mgl32.Vec3) *Tree {
	tree := &Tree{}
	if len(aabbs) == 0 {
		return tree
	}

	items := make([]AABBItem, len(aabbs))
	for i, bounds := range aabbs {
		items[i] = AABBItem{
			Min:      bounds[0],
			Max:      bounds[1],
			Centroid: bounds[0].Add(bounds[1]).Mul(0.5),
			Index:    i,
		}
	}

	tree.Nodes = make([]Node, 0, 2*len(items)-1)
	b.recursiveBuild(items, &tree.Nodes)
	return tree
}

func (b *TLASBuilder) recursiveBuild(items []AABBItem, nodes *[]Node) int32 {
	idx := int32(len(*nodes))
	*nodes = append(*nodes, Node{Left: -1, Right: -1, LeafFirst: -1, LeafCount: 0})

	inf := math32.Inf(1)
	minB := mgl32.Vec3{inf, inf, inf}
	maxB := mgl32.Vec3{-inf, -inf, -inf}
	for _, it := range items {
		for a := 0; a < 3; a++ {
			minB[a] = math32.Min(minB[a], it.Min[a])
			maxB[a] = math32.Max(maxB[a], it.Max[a])
		}
	}

	(*nodes)[idx].Min = minB
	(*nodes)[idx].Max = maxB

	if len(items) == 1 {
		(*nodes)[idx].LeafFirst = int32(items[0].Index)
		(*nodes)[idx].LeafCount = 1
		return idx
	}

	// median split on the longest axis
	extent := maxB.Sub(minB)
	axis := 0
	if extent[1] > extent[0] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})

	mid := len(items) / 2
	left := b.recursiveBuild(items[:mid], nodes)
	right := b.recursiveBuild(items[mid:], nodes)
	(*nodes)[idx].Left = left
	(*nodes)[idx].Right = right

	return idx
}
