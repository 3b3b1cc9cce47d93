package model

// ---------------------------------------------------------------------------
// Class: one type in the hierarchy
// ---------------------------------------------------------------------------

// Parent names a direct base class in a ClassDef.
type Parent struct {
	Name    string
	Virtual bool // shared (virtual) base
}

// Base declares a non-virtual base by name.
func Base(name string) Parent {
	return Parent{Name: name}
}

// VirtualBase declares a virtual (shared) base by name.
func VirtualBase(name string) Parent {
	return Parent{Name: name, Virtual: true}
}

// Field is an instance field declared by a class.
type Field struct {
	Name    string
	Default Value
}

// ClassDef is the input to Registry.RegisterClass.
type ClassDef struct {
	Name    string
	Parents []Parent
	Fields  []Field
	Methods []*Method

	Final             bool // no class may derive from this one
	VirtualDestructor bool

	// Construct runs once per constructed segment of this class, after its
	// bases. A non-nil error aborts construction.
	Construct func(self *Receiver) error
	// Destruct runs once per destroyed segment of this class, before its
	// bases.
	Destruct func(self *Receiver)
}

// Edge is a resolved parent link.
type Edge struct {
	Class   *Class
	Virtual bool
}

// Class is a registered class descriptor. It is immutable once registered;
// the dispatch table, layout plan and abstract flag are filled in by
// Registry.Finalize.
type Class struct {
	Name              string
	Final             bool
	VirtualDestructor bool

	parents   []Edge
	fields    []Field
	methods   []*Method
	construct func(*Receiver) error
	destruct  func(*Receiver)

	registry *Registry
	table    *DispatchTable
	layout   *LayoutPlan
	abstract bool
}

// Parents returns the direct parent edges in declaration order.
func (c *Class) Parents() []Edge {
	return c.parents
}

// Fields returns the fields declared by this class (not inherited ones).
func (c *Class) Fields() []Field {
	return c.fields
}

// DeclaredMethods returns the methods declared by this class.
func (c *Class) DeclaredMethods() []*Method {
	return c.methods
}

// Declared returns the method this class declares for sig, or nil.
func (c *Class) Declared(sig Signature) *Method {
	key := sig.Key()
	for _, m := range c.methods {
		if m.Sig.Key() == key {
			return m
		}
	}
	return nil
}

// HasField returns true if this class declares the named field.
func (c *Class) HasField(name string) bool {
	for _, f := range c.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Table returns the class dispatch table, or nil before finalization.
func (c *Class) Table() *DispatchTable {
	return c.table
}

// Layout returns the class layout plan, or nil before finalization.
func (c *Class) Layout() *LayoutPlan {
	return c.layout
}

// Registry returns the registry the class was registered in.
func (c *Class) Registry() *Registry {
	return c.registry
}

// IsSubclassOf returns true if c is other or derives from it along any path.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other {
		return true
	}
	for _, e := range c.parents {
		if e.Class.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

// IsSuperclassOf returns true if other is c or derives from it.
func (c *Class) IsSuperclassOf(other *Class) bool {
	return other.IsSubclassOf(c)
}

// Ancestors returns every distinct proper ancestor, breadth first in
// declaration order.
func (c *Class) Ancestors() []*Class {
	var result []*Class
	seen := make(map[*Class]bool)
	queue := []*Class{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range cur.parents {
			if seen[e.Class] {
				continue
			}
			seen[e.Class] = true
			result = append(result, e.Class)
			queue = append(queue, e.Class)
		}
	}
	return result
}

// HasVirtualDestructor returns true if this class or any ancestor declares
// a virtual destructor.
func (c *Class) HasVirtualDestructor() bool {
	if c.VirtualDestructor {
		return true
	}
	for _, e := range c.parents {
		if e.Class.HasVirtualDestructor() {
			return true
		}
	}
	return false
}

// Depth returns the length of the longest path to a root class.
func (c *Class) Depth() int {
	depth := 0
	for _, e := range c.parents {
		if d := e.Class.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// String implements the Stringer interface.
func (c *Class) String() string {
	return c.Name
}

// ---------------------------------------------------------------------------
// Abstract / interface predicates
// ---------------------------------------------------------------------------

// IsAbstract reports whether c has at least one pure virtual entry left in
// its dispatch table. Only meaningful after Finalize.
func IsAbstract(c *Class) bool {
	return c.abstract
}

// IsInterface reports whether every method c declares is pure virtual and c
// declares no fields.
func IsInterface(c *Class) bool {
	if len(c.fields) > 0 || len(c.methods) == 0 {
		return false
	}
	for _, m := range c.methods {
		if !m.Pure {
			return false
		}
	}
	return true
}
