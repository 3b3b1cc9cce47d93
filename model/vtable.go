package model

import "fmt"

// Entry is one slot of a dispatch table.
type Entry struct {
	Selector int
	Sig      Signature
	Owner    *Class  // class whose implementation runs
	Method   *Method // Owner's declaration
	Virtual  bool    // effective virtual-ness, inherited along overrides
	Final    bool

	// Ambiguous entries have no unique implementation; Candidates lists the
	// conflicting owners.
	Ambiguous  bool
	Candidates []*Class
}

// Pure reports whether the entry is still a pure virtual placeholder.
func (e *Entry) Pure() bool {
	return !e.Ambiguous && e.Method != nil && e.Method.Pure
}

// DispatchTable maps selector IDs to the most-derived implementation
// reachable from a class. Tables are computed once by Registry.Finalize and
// shared by every instance of the class.
type DispatchTable struct {
	class   *Class
	entries []*Entry // indexed by selector ID
}

// Class returns the class this table belongs to.
func (dt *DispatchTable) Class() *Class {
	return dt.class
}

// Lookup returns the entry for a selector, or nil.
func (dt *DispatchTable) Lookup(selector int) *Entry {
	if selector >= 0 && selector < len(dt.entries) {
		return dt.entries[selector]
	}
	return nil
}

// LookupSig returns the entry for a signature, or nil.
func (dt *DispatchTable) LookupSig(sig Signature) *Entry {
	return dt.Lookup(dt.class.registry.selectors.Lookup(sig))
}

// Entries returns the non-empty entries ordered by selector ID.
func (dt *DispatchTable) Entries() []*Entry {
	result := make([]*Entry, 0, len(dt.entries))
	for _, e := range dt.entries {
		if e != nil {
			result = append(result, e)
		}
	}
	return result
}

// Unimplemented reports whether the entry leaves the class abstract: it is
// pure, or it is ambiguous and one of its candidates is pure.
func (e *Entry) Unimplemented() bool {
	if !e.Ambiguous {
		return e.Pure()
	}
	return len(e.PureCandidates()) > 0
}

// PureCandidates returns the candidates of an ambiguous entry whose own
// implementation is pure.
func (e *Entry) PureCandidates() []*Class {
	var result []*Class
	for _, c := range e.Candidates {
		if c.table == nil {
			continue
		}
		if ce := c.table.Lookup(e.Selector); ce != nil && ce.Pure() {
			result = append(result, c)
		}
	}
	return result
}

// PureEntries returns the entries that leave the class abstract: pure
// virtual placeholders and ambiguous entries with a pure candidate.
func (dt *DispatchTable) PureEntries() []*Entry {
	var result []*Entry
	for _, e := range dt.entries {
		if e != nil && e.Unimplemented() {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of non-empty entries.
func (dt *DispatchTable) Len() int {
	n := 0
	for _, e := range dt.entries {
		if e != nil {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Table construction
// ---------------------------------------------------------------------------

// buildTable computes c's dispatch table from its parents' tables (which
// must already be built) and c's own declarations.
func (r *Registry) buildTable(c *Class) (*DispatchTable, error) {
	n := r.selectors.Len()
	entries := make([]*Entry, n)

	// Merge parent tables.
	for _, edge := range c.parents {
		for id, pe := range edge.Class.table.entries {
			if pe == nil {
				continue
			}
			if cur := entries[id]; cur != nil {
				entries[id] = mergeEntries(c, cur, pe)
			} else {
				entries[id] = pe
			}
		}
	}

	// Apply own declarations.
	for _, m := range c.methods {
		id := r.selectors.Lookup(m.Sig)
		inherited := entries[id]
		virtual := m.IsVirtual() || (inherited != nil && inherited.Virtual)

		if inherited != nil && !inherited.Ambiguous && inherited.Virtual {
			if inherited.Final {
				return nil, fmt.Errorf("%w: %s::%s is final, overridden in %s",
					ErrFinalOverride, inherited.Owner.Name, m.Sig.Key(), c.Name)
			}
			if !r.resultCompatible(m.Sig.Result, inherited.Sig.Result) {
				return nil, fmt.Errorf("%w: %s::%s returns %q, %s::%s returns %q",
					ErrResultMismatch, c.Name, m.Sig.Key(), m.Sig.Result,
					inherited.Owner.Name, inherited.Sig.Key(), inherited.Sig.Result)
			}
		}
		if m.Override && (inherited == nil || inherited.Ambiguous || !inherited.Virtual) {
			return nil, fmt.Errorf("%w: %s::%s", ErrOverrideMismatch, c.Name, m.Sig.Key())
		}
		if m.Final && !virtual {
			return nil, fmt.Errorf("%w: %s::%s is final but not virtual",
				ErrInvalidClass, c.Name, m.Sig.Key())
		}

		entries[id] = &Entry{
			Selector: id,
			Sig:      m.Sig,
			Owner:    c,
			Method:   m,
			Virtual:  virtual,
			Final:    m.Final,
		}
	}

	return &DispatchTable{class: c, entries: entries}, nil
}

// mergeEntries combines two inherited entries for the same selector.
//
// An implementation dominates another when its owner derives from the
// other's owner and that owner occupies a single subobject in c's layout.
// Anything else with distinct subobjects is ambiguous.
func mergeEntries(c *Class, a, b *Entry) *Entry {
	layout := c.layout
	if a == b && (a.Ambiguous || layout.Count(a.Owner) <= 1) {
		return a
	}
	if !a.Ambiguous && !b.Ambiguous {
		if a.Owner == b.Owner && layout.Count(a.Owner) <= 1 {
			return a
		}
		if a.Owner != b.Owner {
			if a.Owner.IsSubclassOf(b.Owner) && layout.Count(b.Owner) <= 1 {
				return a
			}
			if b.Owner.IsSubclassOf(a.Owner) && layout.Count(a.Owner) <= 1 {
				return b
			}
		}
	}

	return &Entry{
		Selector:   a.Selector,
		Sig:        a.Sig,
		Virtual:    a.Virtual || b.Virtual,
		Ambiguous:  true,
		Candidates: appendCandidates(appendCandidates(nil, a), b),
	}
}

func appendCandidates(list []*Class, e *Entry) []*Class {
	add := []*Class{e.Owner}
	if e.Ambiguous {
		add = e.Candidates
	}
	for _, c := range add {
		dup := false
		for _, have := range list {
			if have == c {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, c)
		}
	}
	return list
}

// resultCompatible reports whether an overriding result type may replace
// the overridden one: identical, or a covariant pointer/reference to a
// descendant class.
func (r *Registry) resultCompatible(derived, base string) bool {
	if derived == base {
		return true
	}
	dm, dname, ok := classResult(derived)
	if !ok {
		return false
	}
	bm, bname, ok := classResult(base)
	if !ok || dm != bm {
		return false
	}
	dc, bc := r.classes[dname], r.classes[bname]
	if dc == nil || bc == nil {
		return false
	}
	return dc.IsSubclassOf(bc)
}
