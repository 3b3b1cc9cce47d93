package model

import "fmt"

// ---------------------------------------------------------------------------
// Method resolution
// ---------------------------------------------------------------------------

// Implementation is a resolved method bound to the subobject it runs
// against.
type Implementation struct {
	Owner   *Class
	Entry   *Entry
	Dynamic bool // chosen through the target's dispatch table

	recv Receiver
}

// Invoke runs the implementation.
func (im *Implementation) Invoke(args ...Value) (Value, error) {
	if im.Entry.Method.Impl == nil {
		return nil, fmt.Errorf("%w: %s::%s", ErrPureVirtualCall, im.Owner.Name, im.Entry.Sig.Key())
	}
	recv := im.recv
	return im.Entry.Method.Impl(&recv, args...)
}

// Resolve picks the implementation of sig for a call through v.
//
// Non-virtual signatures resolve statically from v.StaticType. Virtual
// ones go through the target's dispatch table, or, while the target is
// being constructed or destroyed, through the table of the class whose
// constructor or destructor is running.
func Resolve(v View, sig Signature) (*Implementation, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	id := v.StaticType.registry.selector(sig)
	entry := v.StaticType.table.Lookup(id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNoSuchMethod, v.StaticType.Name, sig.Key())
	}
	if entry.Ambiguous {
		return nil, &AmbiguityError{Class: v.StaticType, Sig: sig, Candidates: entry.Candidates}
	}
	if !entry.Virtual {
		return v.bind(entry, v.seg, false), nil
	}

	inst := v.Target
	table := inst.activeTable()
	dyn := table.Lookup(id)
	if dyn == nil {
		return nil, fmt.Errorf("%w: %s called on %s while %s as %s",
			ErrLifecycle, sig.Key(), inst.ID, inst.phase, inst.current.Name)
	}
	if dyn.Ambiguous {
		// Distinct subobjects may still have distinct final overriders.
		sub := inst.segmentFor(entry.Owner, v.seg)
		narrowed := finalOverrider(inst, dyn, sub)
		if narrowed == nil {
			return nil, &AmbiguityError{Class: table.class, Sig: sig, Candidates: dyn.Candidates}
		}
		dyn = narrowed
	}
	if dyn.Pure() {
		return nil, fmt.Errorf("%w: %s::%s reached from %s while %s",
			ErrPureVirtualCall, dyn.Owner.Name, sig.Key(), table.class.Name, inst.phase)
	}

	near := v.seg
	if inst.phase != PhaseLive {
		near = inst.currentSeg
	}
	return v.bind(dyn, near, true), nil
}

// finalOverrider picks, among the candidates of an ambiguous entry, the
// most-derived one whose subobject encloses sub. It returns nil when no
// unique candidate does.
func finalOverrider(inst *Instance, dyn *Entry, sub *Segment) *Entry {
	if sub == nil {
		return nil
	}
	var best *Class
	for _, c := range dyn.Candidates {
		for _, s := range inst.SegmentsOf(c) {
			if !s.contains(sub) {
				continue
			}
			switch {
			case best == nil || c.IsSubclassOf(best):
				best = c
			case !best.IsSubclassOf(c):
				return nil
			}
			break
		}
	}
	if best == nil {
		return nil
	}
	return best.table.Lookup(dyn.Selector)
}

// ResolveQualified bypasses dynamic dispatch and returns ancestor's own
// implementation of sig, as a Base::method() call does.
func ResolveQualified(v View, ancestor *Class, sig Signature) (*Implementation, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	if !v.StaticType.IsSubclassOf(ancestor) {
		return nil, fmt.Errorf("%w: %s is not a base of %s", ErrNotAnAncestor, ancestor.Name, v.StaticType.Name)
	}
	entry := ancestor.table.Lookup(ancestor.registry.selector(sig))
	if entry == nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNoSuchMethod, ancestor.Name, sig.Key())
	}
	if entry.Ambiguous {
		return nil, &AmbiguityError{Class: ancestor, Sig: sig, Candidates: entry.Candidates}
	}
	if entry.Method.Impl == nil {
		return nil, fmt.Errorf("%w: %s::%s has no definition", ErrPureVirtualCall, entry.Owner.Name, sig.Key())
	}
	base, err := uniqueSegment(v.seg, ancestor, v.StaticType)
	if err != nil {
		return nil, err
	}
	return v.bind(entry, base, false), nil
}

// Invoke resolves sig through v and runs it.
func Invoke(v View, sig Signature, args ...Value) (Value, error) {
	im, err := Resolve(v, sig)
	if err != nil {
		return nil, err
	}
	return im.Invoke(args...)
}

// InvokeQualified resolves ancestor's own sig through v and runs it.
func InvokeQualified(v View, ancestor *Class, sig Signature, args ...Value) (Value, error) {
	im, err := ResolveQualified(v, ancestor, sig)
	if err != nil {
		return nil, err
	}
	return im.Invoke(args...)
}

func (v View) check() error {
	if v.Target == nil || v.StaticType == nil {
		return ErrNilView
	}
	if v.Target.phase == PhaseDestroyed {
		return fmt.Errorf("%w: %s", ErrDestroyed, v.Target.ID)
	}
	if v.StaticType.table == nil {
		return ErrNotFinalized
	}
	return nil
}

func (v View) bind(e *Entry, near *Segment, dynamic bool) *Implementation {
	seg := v.Target.segmentFor(e.Owner, near)
	return &Implementation{
		Owner:   e.Owner,
		Entry:   e,
		Dynamic: dynamic,
		recv:    Receiver{inst: v.Target, class: e.Owner, seg: seg},
	}
}

// ---------------------------------------------------------------------------
// Receiver: the explicit object a method body runs against
// ---------------------------------------------------------------------------

// Receiver binds a running method body to its instance, the class the code
// belongs to and that class's segment.
type Receiver struct {
	inst  *Instance
	class *Class
	seg   *Segment
}

// Instance returns the receiving instance.
func (r *Receiver) Instance() *Instance {
	return r.inst
}

// Class returns the class whose code is running.
func (r *Receiver) Class() *Class {
	return r.class
}

// Segment returns the running class's segment.
func (r *Receiver) Segment() *Segment {
	return r.seg
}

// View returns the receiver as a view typed as the running class.
func (r *Receiver) View() View {
	return View{StaticType: r.class, Target: r.inst, seg: r.seg}
}

// Field reads a field of the running class or, failing that, of its bases
// (breadth first).
func (r *Receiver) Field(name string) (Value, bool) {
	if s := r.owner(name); s != nil {
		return s.fields[name], true
	}
	return nil, false
}

// SetField writes a field of the running class or of one of its bases.
func (r *Receiver) SetField(name string, v Value) error {
	s := r.owner(name)
	if s == nil {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.class.Name, name)
	}
	s.fields[name] = v
	return nil
}

func (r *Receiver) owner(name string) *Segment {
	seen := make(map[*Segment]bool)
	queue := []*Segment{r.seg}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s] {
			continue
		}
		seen[s] = true
		if s.Class.HasField(name) {
			return s
		}
		queue = append(queue, s.Bases...)
	}
	return nil
}

// Call makes a self call (this->m()), virtual if sig is virtual.
func (r *Receiver) Call(sig Signature, args ...Value) (Value, error) {
	return Invoke(r.View(), sig, args...)
}

// CallQualified calls base's own implementation (Base::m()).
func (r *Receiver) CallQualified(base *Class, sig Signature, args ...Value) (Value, error) {
	return InvokeQualified(r.View(), base, sig, args...)
}
