package model

import "sync"

// SelectorTable interns signature keys to dense numeric IDs.
//
// Dispatch tables are slices indexed by selector ID, so every signature a
// registry has ever seen maps to exactly one slot in every table.
//
// The table is append-only. Interning happens during registration; after
// the registry is frozen it is only read.
type SelectorTable struct {
	mu    sync.RWMutex
	byKey map[string]int
	byID  []Signature
}

// NewSelectorTable creates a new empty selector table.
func NewSelectorTable() *SelectorTable {
	return &SelectorTable{
		byKey: make(map[string]int),
		byID:  make([]Signature, 0, 64),
	}
}

// Intern returns the ID for a signature, creating a new ID if needed.
func (st *SelectorTable) Intern(sig Signature) int {
	key := sig.Key()

	st.mu.RLock()
	if id, ok := st.byKey[key]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byKey[key]; ok {
		return id
	}

	id := len(st.byID)
	st.byKey[key] = id
	st.byID = append(st.byID, sig)
	return id
}

// Lookup returns the ID for a signature, or -1 if it was never interned.
func (st *SelectorTable) Lookup(sig Signature) int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if id, ok := st.byKey[sig.Key()]; ok {
		return id
	}
	return -1
}

// Signature returns the signature first interned under id.
// The zero Signature is returned for unknown IDs.
func (st *SelectorTable) Signature(id int) Signature {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if id < 0 || id >= len(st.byID) {
		return Signature{}
	}
	return st.byID[id]
}

// Len returns the number of interned signatures.
func (st *SelectorTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
