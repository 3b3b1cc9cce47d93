package model

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Construct builds an instance of c. Virtual bases are constructed first,
// exactly once each, from init.VirtualBases; then the non-virtual
// subobjects, bases before derived and in declaration order; then c's own
// segment. If a constructor fails, the segments already built are
// destroyed in reverse order and the error is returned.
func (r *Registry) Construct(c *Class, init Init) (*Instance, error) {
	if !r.Frozen() {
		return nil, fmt.Errorf("%w: cannot construct %s", ErrNotFinalized, c.Name)
	}
	if c.registry != r {
		return nil, fmt.Errorf("%w: %s belongs to another registry", ErrUnknownClass, c.Name)
	}
	if c.abstract {
		return nil, abstractError(c)
	}

	inst := newInstance(c)
	if err := inst.checkInit(init); err != nil {
		return nil, err
	}

	var built []*Segment
	for _, vb := range inst.virtual {
		if err := inst.constructSegment(vb, init.VirtualBases[vb.Class.Name], false, &built); err != nil {
			inst.unwind(built)
			return nil, err
		}
	}
	if err := inst.constructSegment(inst.root, &init, true, &built); err != nil {
		inst.unwind(built)
		return nil, err
	}

	inst.phase = PhaseLive
	inst.current = c
	inst.currentSeg = inst.root
	log.Debugf("constructed %s (%d segments)", inst.ID, len(inst.segments))
	return inst, nil
}

// New looks up a class by name and constructs it.
func (r *Registry) New(name string, init Init) (*Instance, error) {
	c := r.Lookup(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return r.Construct(c, init)
}

func abstractError(c *Class) error {
	var pure []string
	if c.table != nil {
		for _, e := range c.table.PureEntries() {
			if !e.Ambiguous {
				pure = append(pure, e.Owner.Name+"::"+e.Sig.Key())
				continue
			}
			for _, k := range e.PureCandidates() {
				pure = append(pure, k.Name+"::"+e.Sig.Key())
			}
		}
	}
	return fmt.Errorf("%w: %s (pure: %s)", ErrAbstractInstantiation, c.Name, strings.Join(pure, ", "))
}

// checkInit rejects initializers that name classes which are not bases in
// the expected role.
func (inst *Instance) checkInit(init Init) error {
	for name := range init.VirtualBases {
		found := false
		for _, vb := range inst.virtual {
			if vb.Class.Name == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s is not a virtual base of %s", ErrNotAnAncestor, name, inst.class.Name)
		}
	}
	return checkBases(inst.root, &init)
}

func checkBases(s *Segment, in *Init) error {
	if in == nil {
		return nil
	}
	for name, sub := range in.Bases {
		var base *Segment
		for _, b := range s.Bases {
			if !b.Shared && b.Class.Name == name {
				base = b
				break
			}
		}
		if base == nil {
			return fmt.Errorf("%w: %s is not a direct non-virtual base of %s", ErrNotAnAncestor, name, s.Class.Name)
		}
		if err := checkBases(base, sub); err != nil {
			return err
		}
	}
	return nil
}

func (inst *Instance) constructSegment(s *Segment, in *Init, top bool, built *[]*Segment) error {
	var bases map[string]*Init
	if in != nil {
		bases = in.Bases
		if !top {
			for name := range in.VirtualBases {
				inst.ignored = append(inst.ignored, IgnoredInit{From: s.Class.Name, VirtualBase: name})
			}
		}
	}

	for _, b := range s.Bases {
		if b.Shared {
			continue
		}
		if err := inst.constructSegment(b, bases[b.Class.Name], false, built); err != nil {
			return err
		}
	}

	for _, f := range s.Class.fields {
		s.fields[f.Name] = f.Default
	}
	if in != nil {
		for name, v := range in.Fields {
			if !s.Class.HasField(name) {
				return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Class.Name, name)
			}
			s.fields[name] = v
		}
	}

	inst.phase = PhaseUnderConstruction
	inst.current = s.Class
	inst.currentSeg = s
	inst.record(EventConstruct, s)
	if hook := s.Class.construct; hook != nil {
		if err := hook(&Receiver{inst: inst, class: s.Class, seg: s}); err != nil {
			return fmt.Errorf("constructing %s: %w", s.Path, err)
		}
	}
	s.constructed = true
	*built = append(*built, s)
	return nil
}

// unwind destroys the already constructed segments of a failed
// construction.
func (inst *Instance) unwind(built []*Segment) {
	inst.teardown(built)
	inst.phase = PhaseDestroyed
	log.Debugf("construction of %s failed, unwound %d segments", inst.ID, len(built))
}

// ---------------------------------------------------------------------------
// Destruction
// ---------------------------------------------------------------------------

// Destroy tears down every segment in reverse construction order.
func Destroy(inst *Instance) error {
	if err := inst.checkDestroyable(); err != nil {
		return err
	}
	inst.teardown(inst.segments)
	inst.phase = PhaseDestroyed
	log.Debugf("destroyed %s", inst.ID)
	return nil
}

// DestroyThrough destroys the instance behind v the way deleting through a
// pointer of v's static type would. With a virtual destructor the whole
// object is destroyed. Without one only the static type's subobject is
// destroyed; the remaining segments are recorded as leaked.
func DestroyThrough(v View) error {
	if err := v.check(); err != nil {
		return err
	}
	if v.seg == nil {
		return ErrNilView
	}
	if v.StaticType.HasVirtualDestructor() || v.seg == v.Target.root {
		return Destroy(v.Target)
	}

	inst := v.Target
	if err := inst.checkDestroyable(); err != nil {
		return err
	}
	var partial []*Segment
	for _, s := range inst.segments {
		if s == v.seg || (!s.Shared && v.seg.contains(s)) {
			partial = append(partial, s)
		} else {
			inst.leaked = append(inst.leaked, s.Path)
		}
	}
	inst.teardown(partial)
	inst.phase = PhaseDestroyed
	log.Warningf("destroyed %s through %s without a virtual destructor, leaked %d segments",
		inst.ID, v.StaticType.Name, len(inst.leaked))
	return nil
}

func (inst *Instance) checkDestroyable() error {
	switch inst.phase {
	case PhaseLive:
		return nil
	case PhaseDestroyed:
		return fmt.Errorf("%w: %s", ErrDestroyed, inst.ID)
	}
	return fmt.Errorf("%w: cannot destroy %s while %s", ErrLifecycle, inst.ID, inst.phase)
}

// teardown runs destructors for segs in reverse order.
func (inst *Instance) teardown(segs []*Segment) {
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		inst.phase = PhaseUnderDestruction
		inst.current = s.Class
		inst.currentSeg = s
		inst.record(EventDestruct, s)
		if hook := s.Class.destruct; hook != nil {
			hook(&Receiver{inst: inst, class: s.Class, seg: s})
		}
		s.constructed = false
	}
	inst.current = inst.class
	inst.currentSeg = inst.root
}
