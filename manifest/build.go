package manifest

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/polymodel/model"
)

var log = commonlog.GetLogger("polymodel.manifest")

// Build registers every class of m (includes first) and finalizes the
// registry.
func Build(m *Manifest) (*model.Registry, error) {
	classes, err := NewResolver(m).AllClasses()
	if err != nil {
		return nil, err
	}
	return BuildClasses(classes)
}

// BuildClasses registers decls in order and finalizes the registry.
func BuildClasses(decls []ClassDecl) (*model.Registry, error) {
	r := model.NewRegistry()
	for _, decl := range decls {
		def, err := decl.Def()
		if err != nil {
			return nil, err
		}
		if _, err := r.RegisterClass(def); err != nil {
			return nil, err
		}
	}
	if err := r.Finalize(); err != nil {
		return nil, err
	}
	log.Debugf("built registry with %d classes", r.Len())
	return r, nil
}

// Def converts the declaration into a model class definition.
func (c ClassDecl) Def() (model.ClassDef, error) {
	def := model.ClassDef{
		Name:              c.Name,
		Final:             c.Final,
		VirtualDestructor: c.VirtualDestructor,
	}
	for _, p := range c.Parents {
		def.Parents = append(def.Parents, model.Parent{Name: p.Name, Virtual: p.Virtual})
	}
	for _, f := range c.Fields {
		def.Fields = append(def.Fields, model.Field{Name: f.Name, Default: f.Default})
	}
	for _, md := range c.Methods {
		m, err := md.method()
		if err != nil {
			return model.ClassDef{}, fmt.Errorf("class %s: %w", c.Name, err)
		}
		def.Methods = append(def.Methods, m)
	}
	return def, nil
}

func (md MethodDecl) method() (*model.Method, error) {
	m := &model.Method{
		Sig:      model.Sig(md.Name, md.Params...).Returning(md.Type),
		Virtual:  md.Virtual,
		Pure:     md.Pure,
		Final:    md.Final,
		Override: md.Override,
	}
	switch {
	case md.Delegate != "":
		target, ok := model.ParseKey(md.Delegate)
		if !ok {
			return nil, fmt.Errorf("method %s: bad delegate %q", md.Name, md.Delegate)
		}
		m.Impl = model.Delegate(target)
	case md.Pure && md.Result == nil:
		// no definition
	default:
		m.Impl = model.Returns(md.Result)
	}
	return m, nil
}

// Init converts the declaration into a model initializer.
func (d *InitDecl) Init() model.Init {
	if d == nil {
		return model.Init{}
	}
	in := model.Init{Fields: d.Fields}
	if len(d.Bases) > 0 {
		in.Bases = make(map[string]*model.Init, len(d.Bases))
		for name, sub := range d.Bases {
			b := sub.Init()
			in.Bases[name] = &b
		}
	}
	if len(d.VirtualBases) > 0 {
		in.VirtualBases = make(map[string]*model.Init, len(d.VirtualBases))
		for name, sub := range d.VirtualBases {
			b := sub.Init()
			in.VirtualBases[name] = &b
		}
	}
	return in
}
