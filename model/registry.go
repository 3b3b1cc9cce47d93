package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("polymodel.model")

// ---------------------------------------------------------------------------
// Registry: class table with a build phase and a frozen phase
// ---------------------------------------------------------------------------

// Registry holds registered classes. Classes are registered parents first;
// Finalize computes every dispatch table and layout and freezes the
// registry. After that the registry is read-only and safe for concurrent
// readers.
type Registry struct {
	mu        sync.RWMutex
	selectors *SelectorTable
	classes   map[string]*Class
	order     []*Class // registration order, parents before children
	frozen    bool
}

// NewRegistry creates an empty registry in the build phase.
func NewRegistry() *Registry {
	return &Registry{
		selectors: NewSelectorTable(),
		classes:   make(map[string]*Class),
	}
}

// RegisterClass validates def and adds it to the registry. Every parent
// must already be registered.
func (r *Registry) RegisterClass(def ClassDef) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, fmt.Errorf("%w: cannot register %s", ErrFrozen, def.Name)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("%w: empty class name", ErrInvalidClass)
	}
	if _, ok := r.classes[def.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, def.Name)
	}

	c := &Class{
		Name:              def.Name,
		Final:             def.Final,
		VirtualDestructor: def.VirtualDestructor,
		fields:            def.Fields,
		methods:           def.Methods,
		construct:         def.Construct,
		destruct:          def.Destruct,
		registry:          r,
	}

	seenParent := make(map[string]bool)
	for _, p := range def.Parents {
		parent, ok := r.classes[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, p.Name, def.Name)
		}
		if seenParent[p.Name] {
			return nil, fmt.Errorf("%w: %s listed twice as parent of %s", ErrInvalidClass, p.Name, def.Name)
		}
		seenParent[p.Name] = true
		if parent.Final {
			return nil, fmt.Errorf("%w: %s derives from %s", ErrFinalClass, def.Name, p.Name)
		}
		c.parents = append(c.parents, Edge{Class: parent, Virtual: p.Virtual})
	}

	seenField := make(map[string]bool)
	for _, f := range def.Fields {
		if f.Name == "" || seenField[f.Name] {
			return nil, fmt.Errorf("%w: bad or duplicate field %q in %s", ErrInvalidClass, f.Name, def.Name)
		}
		seenField[f.Name] = true
	}

	seenSig := make(map[string]bool)
	for _, m := range def.Methods {
		if m == nil || m.Sig.Name == "" {
			return nil, fmt.Errorf("%w: unnamed method in %s", ErrInvalidClass, def.Name)
		}
		key := m.Sig.Key()
		if seenSig[key] {
			return nil, fmt.Errorf("%w: %s declared twice in %s", ErrInvalidClass, key, def.Name)
		}
		seenSig[key] = true
		if m.Impl == nil && !m.Pure {
			return nil, fmt.Errorf("%w: %s::%s has no implementation", ErrInvalidClass, def.Name, key)
		}
	}
	for _, m := range def.Methods {
		r.selectors.Intern(m.Sig)
	}

	r.classes[c.Name] = c
	r.order = append(r.order, c)
	log.Debugf("registered class %s (%d parents, %d methods)", c.Name, len(c.parents), len(c.methods))
	return c, nil
}

// Finalize computes the layout, dispatch table and abstract flag of every
// class, then freezes the registry. On error the registry stays in the
// build phase.
func (r *Registry) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: already finalized", ErrFrozen)
	}

	for _, c := range r.order {
		c.layout = PlanLayout(c)
		table, err := r.buildTable(c)
		if err != nil {
			r.unfinalize()
			return err
		}
		c.table = table
		c.abstract = len(table.PureEntries()) > 0
		log.Debugf("finalized %s: %d entries, %d segments, abstract=%t",
			c.Name, table.Len(), len(c.layout.Segments), c.abstract)
	}

	r.frozen = true
	log.Infof("registry finalized with %d classes and %d selectors", len(r.order), r.selectors.Len())
	return nil
}

// unfinalize drops the tables and layouts of a failed Finalize.
func (r *Registry) unfinalize() {
	for _, c := range r.order {
		c.layout = nil
		c.table = nil
		c.abstract = false
	}
}

// Frozen returns true once Finalize has succeeded.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup finds a class by name.
func (r *Registry) Lookup(name string) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name]
}

// Classes returns all classes in registration order.
func (r *Registry) Classes() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Class, len(r.order))
	copy(result, r.order)
	return result
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Selectors returns the registry's selector table.
func (r *Registry) Selectors() *SelectorTable {
	return r.selectors
}

// PlanAll recomputes the layout of every class concurrently. It requires a
// frozen registry, whose class graph no longer changes.
func (r *Registry) PlanAll(ctx context.Context) (map[string]*LayoutPlan, error) {
	if !r.Frozen() {
		return nil, ErrNotFinalized
	}
	classes := r.Classes()
	plans := make([]*LayoutPlan, len(classes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, c := range classes {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plans[i] = PlanLayout(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]*LayoutPlan, len(classes))
	for i, c := range classes {
		result[c.Name] = plans[i]
	}
	return result, nil
}

// selector returns the selector ID for sig, or -1.
func (r *Registry) selector(sig Signature) int {
	return r.selectors.Lookup(sig)
}
