package bvh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// VisitFunc is called for every leaf whose bounds the ray enters. It returns
// the (possibly shortened) tMax and whether traversal should stop.
type VisitFunc func(leaf int32, tMax float32) (float32, bool)

// Traverse walks the tree front to back along origin + t*dir, t in [tMin, tMax].
func (t *Tree) Traverse(origin, dir mgl32.Vec3, tMin, tMax float32, visit VisitFunc) {
	if len(t.Nodes) == 0 {
		return
	}
	invDir := mgl32.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		node := &t.Nodes[stack[sp]]

		if _, ok := SlabTest(node.Min, node.Max, origin, invDir, tMin, tMax); !ok {
			continue
		}

		if node.IsLeaf() {
			var stop bool
			tMax, stop = visit(node.LeafFirst, tMax)
			if stop {
				return
			}
			continue
		}

		// push the far child first so the near one is popped next
		near, far := node.Left, node.Right
		if ln, lok := t.entry(near, origin, invDir, tMin, tMax); lok {
			if rn, rok := t.entry(far, origin, invDir, tMin, tMax); rok && rn < ln {
				near, far = far, near
			}
		} else {
			near, far = far, near
		}
		if sp+2 > len(stack) {
			continue
		}
		stack[sp] = far
		stack[sp+1] = near
		sp += 2
	}
}

func (t *Tree) entry(idx int32, origin, invDir mgl32.Vec3, tMin, tMax float32) (float32, bool) {
	n := &t.Nodes[idx]
	return SlabTest(n.Min, n.Max, origin, invDir, tMin, tMax)
}

// SlabTest clips [tMin, tMax] against an AABB and returns the entry distance.
// NaNs from zero direction components leave the interval untouched.
func SlabTest(minB, maxB, origin, invDir mgl32.Vec3, tMin, tMax float32) (float32, bool) {
	tNear, _, ok := SlabInterval(minB, maxB, origin, invDir, tMin, tMax)
	return tNear, ok
}

// SlabInterval is SlabTest that also reports the exit distance.
func SlabInterval(minB, maxB, origin, invDir mgl32.Vec3, tMin, tMax float32) (float32, float32, bool) {
	for a := 0; a < 3; a++ {
		t0 := (minB[a] - origin[a]) * invDir[a]
		t1 := (maxB[a] - origin[a]) * invDir[a]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return tMin, tMax, false
		}
	}
	return tMin, tMax, true
}
