package model

import "fmt"

// SegmentState is the serializable state of one segment.
type SegmentState struct {
	Path   string           `cbor:"path" msgpack:"path" json:"path"`
	Class  string           `cbor:"class" msgpack:"class" json:"class"`
	Fields map[string]Value `cbor:"fields,omitempty" msgpack:"fields,omitempty" json:"fields,omitempty"`
}

// Snapshot is the serializable state of an instance.
type Snapshot struct {
	ID         string         `cbor:"id" msgpack:"id" json:"id"`
	Class      string         `cbor:"class" msgpack:"class" json:"class"`
	Phase      string         `cbor:"phase" msgpack:"phase" json:"phase"`
	SlicedFrom string         `cbor:"sliced_from,omitempty" msgpack:"sliced_from,omitempty" json:"sliced_from,omitempty"`
	Segments   []SegmentState `cbor:"segments" msgpack:"segments" json:"segments"`
}

// Snapshot captures the instance's fields. Only live or destroyed
// instances have a stable state to capture.
func (inst *Instance) Snapshot() (Snapshot, error) {
	if inst.phase != PhaseLive && inst.phase != PhaseDestroyed {
		return Snapshot{}, fmt.Errorf("%w: cannot snapshot %s while %s", ErrLifecycle, inst.ID, inst.phase)
	}
	s := Snapshot{
		ID:    inst.ID,
		Class: inst.class.Name,
		Phase: inst.phase.String(),
	}
	if inst.slicedFrom != nil {
		s.SlicedFrom = inst.slicedFrom.Name
	}
	for _, seg := range inst.segments {
		s.Segments = append(s.Segments, SegmentState{
			Path:   seg.Path,
			Class:  seg.Class.Name,
			Fields: seg.Fields(),
		})
	}
	return s, nil
}

// Restore rebuilds an instance from a snapshot without running any
// constructor. The snapshot's class must be registered and concrete, and
// its segment paths must match the class layout.
func (r *Registry) Restore(s Snapshot) (*Instance, error) {
	if !r.Frozen() {
		return nil, ErrNotFinalized
	}
	c := r.Lookup(s.Class)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, s.Class)
	}
	if c.abstract {
		return nil, abstractError(c)
	}
	phase, ok := ParsePhase(s.Phase)
	if !ok || (phase != PhaseLive && phase != PhaseDestroyed) {
		return nil, fmt.Errorf("%w: phase %q", ErrInvalidSnapshot, s.Phase)
	}

	inst := newInstance(c)
	if s.ID != "" {
		inst.ID = s.ID
	}
	if len(s.Segments) != len(inst.segments) {
		return nil, fmt.Errorf("%w: %s has %d segments, snapshot has %d",
			ErrInvalidSnapshot, c.Name, len(inst.segments), len(s.Segments))
	}
	for _, ss := range s.Segments {
		seg := inst.Segment(ss.Path)
		if seg == nil || seg.Class.Name != ss.Class {
			return nil, fmt.Errorf("%w: no %s segment at %s", ErrInvalidSnapshot, ss.Class, ss.Path)
		}
		for _, f := range seg.Class.fields {
			seg.fields[f.Name] = f.Default
		}
		for name, v := range ss.Fields {
			if !seg.Class.HasField(name) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, seg.Class.Name, name)
			}
			seg.fields[name] = v
		}
		seg.constructed = phase == PhaseLive
	}
	if s.SlicedFrom != "" {
		inst.slicedFrom = r.Lookup(s.SlicedFrom)
	}
	inst.phase = phase
	return inst, nil
}
