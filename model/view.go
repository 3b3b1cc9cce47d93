package model

import "fmt"

// View is a non-owning reference to an instance typed as one of its
// classes. It only exposes methods visible from StaticType; virtual ones
// still dispatch on the target's most-derived class.
type View struct {
	StaticType *Class
	Target     *Instance

	seg *Segment // the StaticType subobject inside Target
}

// Subobject returns the segment of the static type the view refers to.
func (v View) Subobject() *Segment {
	return v.seg
}

// IsZero reports whether the view refers to nothing.
func (v View) IsZero() bool {
	return v.Target == nil
}

// MakeView views inst as class as. It fails if as is not a class of inst
// or if inst holds more than one as subobject.
func MakeView(inst *Instance, as *Class) (View, error) {
	seg, err := uniqueSegment(inst.root, as, inst.class)
	if err != nil {
		return View{}, err
	}
	return View{StaticType: as, Target: inst, seg: seg}, nil
}

// Upcast views the same object as an ancestor of the static type, searching
// only from this view's subobject. Going through an intermediate view is
// how a duplicated non-virtual base is selected.
func (v View) Upcast(as *Class) (View, error) {
	if v.Target == nil {
		return View{}, ErrNilView
	}
	seg, err := uniqueSegment(v.seg, as, v.StaticType)
	if err != nil {
		return View{}, err
	}
	return View{StaticType: as, Target: v.Target, seg: seg}, nil
}

func uniqueSegment(from *Segment, as, of *Class) (*Segment, error) {
	found := from.collect(as, make(map[*Segment]bool), nil)
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s is not a base of %s", ErrNotAnAncestor, as.Name, of.Name)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %s holds %d %s subobjects", ErrAmbiguousBase, of.Name, len(found), as.Name)
}

// DynamicCast converts v to a view typed as to, checking the target's
// most-derived class at run time. It fails (returns false) when the
// target has no unique to subobject or has been destroyed.
func DynamicCast(v View, to *Class) (View, bool) {
	if v.Target == nil || v.Target.phase == PhaseDestroyed {
		return View{}, false
	}
	out, err := MakeView(v.Target, to)
	if err != nil {
		return View{}, false
	}
	return out, true
}

// ---------------------------------------------------------------------------
// Slicing and assignment through a base
// ---------------------------------------------------------------------------

// SliceTo copies inst as its ancestor as. The result is an independent,
// live instance of as holding only the segments reachable from as, and it
// dispatches through as's own table.
func SliceTo(inst *Instance, as *Class) (*Instance, error) {
	if inst.phase == PhaseDestroyed {
		return nil, fmt.Errorf("%w: %s", ErrDestroyed, inst.ID)
	}
	src, err := MakeView(inst, as)
	if err != nil {
		return nil, err
	}
	if as.abstract {
		return nil, abstractError(as)
	}

	out := newInstance(as)
	copySubobject(out.root, src.seg, make(map[*Segment]bool))
	for _, s := range out.segments {
		s.constructed = true
	}
	out.phase = PhaseLive
	out.slicedFrom = inst.class
	log.Debugf("sliced %s to %s as %s", inst.ID, as.Name, out.ID)
	return out, nil
}

// AssignThrough assigns src to the object behind v using v's static type.
// Only the static type's subobject (its own and its bases' fields) is
// overwritten; the target's other segments and its dispatch table are left
// as they were.
func AssignThrough(v View, src *Instance) error {
	if v.Target == nil {
		return ErrNilView
	}
	if v.Target.phase == PhaseDestroyed {
		return fmt.Errorf("%w: %s", ErrDestroyed, v.Target.ID)
	}
	if src.phase == PhaseDestroyed {
		return fmt.Errorf("%w: %s", ErrDestroyed, src.ID)
	}
	from, err := MakeView(src, v.StaticType)
	if err != nil {
		return err
	}
	copySubobject(v.seg, from.seg, make(map[*Segment]bool))
	return nil
}

// copySubobject copies field values from src into dst. Both must be
// subobjects of the same class, so their bases line up by position.
func copySubobject(dst, src *Segment, seen map[*Segment]bool) {
	if seen[dst] {
		return
	}
	seen[dst] = true
	for _, f := range dst.Class.fields {
		if v, ok := src.fields[f.Name]; ok {
			dst.fields[f.Name] = v
		}
	}
	for i, b := range dst.Bases {
		if i < len(src.Bases) {
			copySubobject(b, src.Bases[i], seen)
		}
	}
}
