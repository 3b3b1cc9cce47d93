package model

import "strings"

// SegmentPlan is one planned field segment: the subobject contributed by a
// single class along one inheritance path (or the single shared subobject
// of a virtual base).
type SegmentPlan struct {
	Class  *Class
	Path   string
	Shared bool
	Bases  []*SegmentPlan // one per parent edge, in declaration order
}

// LayoutPlan describes how an instance of a class is laid out.
//
// A class reached through at least one virtual edge gets exactly one shared
// segment no matter how many paths reach it; otherwise every base edge gets
// its own segment, so a class reached along two non-virtual paths appears
// twice.
type LayoutPlan struct {
	Class    *Class
	Root     *SegmentPlan
	Virtual  []*SegmentPlan // shared segments, in construction order
	Segments []*SegmentPlan // every segment, in construction order

	counts map[*Class]int
}

// virtualPathPrefix marks the path element of a shared segment.
const virtualPathPrefix = "virtual:"

// PlanLayout walks the ancestor DAG of c and plans its field segments.
//
// Construction order is: virtual bases in depth-first left-to-right
// post-order (a virtual base's own virtual bases come first), then the
// non-virtual subobjects of the root, bases before derived.
func PlanLayout(c *Class) *LayoutPlan {
	p := &LayoutPlan{Class: c, counts: make(map[*Class]int)}

	// Virtual base order.
	var order []*Class
	inOrder := make(map[*Class]bool)
	visited := make(map[*Class]bool)
	var visit func(k *Class)
	visit = func(k *Class) {
		if visited[k] {
			return
		}
		visited[k] = true
		for _, e := range k.parents {
			visit(e.Class)
			if e.Virtual && !inOrder[e.Class] {
				inOrder[e.Class] = true
				order = append(order, e.Class)
			}
		}
	}
	visit(c)

	shared := make(map[*Class]*SegmentPlan)
	var build func(k *Class, path string, isShared bool) *SegmentPlan
	sharedSegment := func(k *Class) *SegmentPlan {
		if sp, ok := shared[k]; ok {
			return sp
		}
		sp := build(k, c.Name+"/"+virtualPathPrefix+k.Name, true)
		shared[k] = sp
		return sp
	}
	build = func(k *Class, path string, isShared bool) *SegmentPlan {
		sp := &SegmentPlan{Class: k, Path: path, Shared: isShared}
		for _, e := range k.parents {
			// A class reached through any virtual edge has one segment,
			// whichever edge leads to it.
			if e.Virtual || inOrder[e.Class] {
				sp.Bases = append(sp.Bases, sharedSegment(e.Class))
			} else {
				sp.Bases = append(sp.Bases, build(e.Class, path+"/"+e.Class.Name, false))
			}
		}
		return sp
	}
	p.Root = build(c, c.Name, false)

	var emit func(sp *SegmentPlan)
	emit = func(sp *SegmentPlan) {
		for _, b := range sp.Bases {
			if !b.Shared {
				emit(b)
			}
		}
		p.Segments = append(p.Segments, sp)
		p.counts[sp.Class]++
	}
	for _, k := range order {
		sp := sharedSegment(k)
		p.Virtual = append(p.Virtual, sp)
		emit(sp)
	}
	emit(p.Root)

	return p
}

// Count returns how many segments of class k the layout holds.
func (p *LayoutPlan) Count(k *Class) int {
	return p.counts[k]
}

// SegmentsOf returns the segments of class k in construction order.
func (p *LayoutPlan) SegmentsOf(k *Class) []*SegmentPlan {
	var result []*SegmentPlan
	for _, sp := range p.Segments {
		if sp.Class == k {
			result = append(result, sp)
		}
	}
	return result
}

// String renders the layout one segment per line in construction order.
func (p *LayoutPlan) String() string {
	var sb strings.Builder
	for _, sp := range p.Segments {
		sb.WriteString(sp.Path)
		if sp.Shared {
			sb.WriteString(" (shared)")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
