package model

import (
	"strings"

	"github.com/google/uuid"
)

// Phase is an instance's lifecycle state.
type Phase int

const (
	PhaseUnderConstruction Phase = iota
	PhaseLive
	PhaseUnderDestruction
	PhaseDestroyed
)

var phaseNames = [...]string{"under-construction", "live", "under-destruction", "destroyed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == s {
			return Phase(i), true
		}
	}
	return 0, false
}

// EventKind distinguishes lifecycle trace events.
type EventKind int

const (
	EventConstruct EventKind = iota
	EventDestruct
)

// Event is one step of an instance's construction or destruction.
type Event struct {
	Kind  EventKind
	Class string
	Path  string
}

func (e Event) String() string {
	if e.Kind == EventDestruct {
		return "destruct " + e.Path
	}
	return "construct " + e.Path
}

// IgnoredInit records a virtual-base initializer supplied by an
// intermediate class and skipped because the most-derived class owns
// virtual-base construction.
type IgnoredInit struct {
	From        string // class whose initializer carried it
	VirtualBase string
}

// Init is the construction argument for one class level. Fields set the
// level's own fields, Bases carry initializers for direct non-virtual
// bases, and VirtualBases bind virtual bases. VirtualBases is honored only
// at the top level.
type Init struct {
	Fields       map[string]Value
	Bases        map[string]*Init
	VirtualBases map[string]*Init
}

// ---------------------------------------------------------------------------
// Segment
// ---------------------------------------------------------------------------

// Segment holds the fields contributed by one class along one path.
type Segment struct {
	Class  *Class
	Path   string
	Shared bool
	Bases  []*Segment

	fields      map[string]Value
	constructed bool
}

// Field returns the value of one of the segment's own fields.
func (s *Segment) Field(name string) (Value, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// Fields returns a copy of the segment's own fields.
func (s *Segment) Fields() map[string]Value {
	out := make(map[string]Value, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// Constructed reports whether the segment's constructor has completed and
// its destructor has not yet run.
func (s *Segment) Constructed() bool {
	return s.constructed
}

// contains reports whether target is s or one of its (transitive) bases.
func (s *Segment) contains(target *Segment) bool {
	if s == target {
		return true
	}
	for _, b := range s.Bases {
		if b.contains(target) {
			return true
		}
	}
	return false
}

// collect appends the distinct segments of class k reachable from s.
func (s *Segment) collect(k *Class, seen map[*Segment]bool, out []*Segment) []*Segment {
	if seen[s] {
		return out
	}
	seen[s] = true
	if s.Class == k {
		out = append(out, s)
	}
	for _, b := range s.Bases {
		out = b.collect(k, seen, out)
	}
	return out
}

// ---------------------------------------------------------------------------
// Instance
// ---------------------------------------------------------------------------

// Instance is a constructed object. Its dispatch table reference always
// belongs to its most-derived class; during construction and destruction
// virtual calls go through the table of the class currently being built or
// torn down instead.
type Instance struct {
	ID string

	class    *Class
	table    *DispatchTable
	root     *Segment
	segments []*Segment // construction order
	virtual  []*Segment // shared segments, construction order

	phase      Phase
	current    *Class
	currentSeg *Segment

	events     []Event
	ignored    []IgnoredInit
	leaked     []string
	slicedFrom *Class
}

// newInstance lays out an instance of c from its layout plan. Fields are
// unset and the instance starts under construction.
func newInstance(c *Class) *Instance {
	plan := c.layout
	inst := &Instance{
		ID:      generateID(c.Name),
		class:   c,
		table:   c.table,
		phase:   PhaseUnderConstruction,
		current: c,
	}

	segs := make(map[*SegmentPlan]*Segment, len(plan.Segments))
	var materialize func(sp *SegmentPlan) *Segment
	materialize = func(sp *SegmentPlan) *Segment {
		if s, ok := segs[sp]; ok {
			return s
		}
		s := &Segment{
			Class:  sp.Class,
			Path:   sp.Path,
			Shared: sp.Shared,
			fields: make(map[string]Value, len(sp.Class.fields)),
		}
		segs[sp] = s
		for _, b := range sp.Bases {
			s.Bases = append(s.Bases, materialize(b))
		}
		return s
	}
	inst.root = materialize(plan.Root)
	for _, sp := range plan.Segments {
		inst.segments = append(inst.segments, segs[sp])
	}
	for _, sp := range plan.Virtual {
		inst.virtual = append(inst.virtual, segs[sp])
	}
	inst.currentSeg = inst.root
	return inst
}

func generateID(className string) string {
	return strings.ToLower(className) + "_" + uuid.New().String()
}

// Class returns the most-derived class.
func (inst *Instance) Class() *Class {
	return inst.class
}

// Table returns the most-derived class's dispatch table.
func (inst *Instance) Table() *DispatchTable {
	return inst.table
}

// Phase returns the lifecycle phase.
func (inst *Instance) Phase() Phase {
	return inst.phase
}

// Current returns the class whose constructor or destructor is running,
// or the most-derived class while live.
func (inst *Instance) Current() *Class {
	return inst.current
}

// Root returns the most-derived class's own segment.
func (inst *Instance) Root() *Segment {
	return inst.root
}

// Segments returns every segment in construction order.
func (inst *Instance) Segments() []*Segment {
	return inst.segments
}

// SegmentsOf returns the segments of class k in construction order.
func (inst *Instance) SegmentsOf(k *Class) []*Segment {
	var result []*Segment
	for _, s := range inst.segments {
		if s.Class == k {
			result = append(result, s)
		}
	}
	return result
}

// Segment returns the segment at path, or nil.
func (inst *Instance) Segment(path string) *Segment {
	for _, s := range inst.segments {
		if s.Path == path {
			return s
		}
	}
	return nil
}

// Events returns the lifecycle trace.
func (inst *Instance) Events() []Event {
	return inst.events
}

// IgnoredInits returns the virtual-base initializers skipped during
// construction.
func (inst *Instance) IgnoredInits() []IgnoredInit {
	return inst.ignored
}

// Leaked returns the paths of segments never destroyed because the
// instance was destroyed through a view without a virtual destructor.
func (inst *Instance) Leaked() []string {
	return inst.leaked
}

// SlicedFrom returns the class the instance was sliced from, or nil.
func (inst *Instance) SlicedFrom() *Class {
	return inst.slicedFrom
}

// activeTable returns the table virtual calls dispatch through right now.
func (inst *Instance) activeTable() *DispatchTable {
	switch inst.phase {
	case PhaseUnderConstruction, PhaseUnderDestruction:
		return inst.current.table
	}
	return inst.table
}

// segmentFor finds the segment of class owner that code running against
// near should see: a base of near, else a segment containing near, else
// the first one laid out.
func (inst *Instance) segmentFor(owner *Class, near *Segment) *Segment {
	if near != nil {
		if found := near.collect(owner, make(map[*Segment]bool), nil); len(found) > 0 {
			return found[0]
		}
		for _, s := range inst.segments {
			if s.Class == owner && s.contains(near) {
				return s
			}
		}
	}
	for _, s := range inst.segments {
		if s.Class == owner {
			return s
		}
	}
	return nil
}

func (inst *Instance) record(kind EventKind, s *Segment) {
	inst.events = append(inst.events, Event{Kind: kind, Class: s.Class.Name, Path: s.Path})
}
