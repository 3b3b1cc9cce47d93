package model

import "testing"

var (
	getName = Sig("getName").Returning("string")
	getID   = Sig("getID").Returning("int")
)

func mustRegistry(t *testing.T, defs ...ClassDef) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, d := range defs {
		if _, err := r.RegisterClass(d); err != nil {
			t.Fatalf("RegisterClass(%s): %v", d.Name, err)
		}
	}
	if err := r.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return r
}

func mustNew(t *testing.T, r *Registry, name string, init Init) *Instance {
	t.Helper()
	inst, err := r.New(name, init)
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	return inst
}

func mustView(t *testing.T, r *Registry, inst *Instance, as string) View {
	t.Helper()
	v, err := MakeView(inst, r.Lookup(as))
	if err != nil {
		t.Fatalf("MakeView(%s as %s): %v", inst.Class().Name, as, err)
	}
	return v
}

func mustInvoke(t *testing.T, v View, sig Signature) Value {
	t.Helper()
	got, err := Invoke(v, sig)
	if err != nil {
		t.Fatalf("Invoke(%s as %s, %s): %v", v.Target.Class().Name, v.StaticType.Name, sig, err)
	}
	return got
}

// baseDerived registers the classic Base/Derived pair with a virtual
// getName overridden in Derived.
func baseDerived() []ClassDef {
	return []ClassDef{
		{
			Name:    "Base",
			Fields:  []Field{{Name: "value", Default: 0}},
			Methods: []*Method{NewVirtual(getName, Returns("Base"))},
		},
		{
			Name:    "Derived",
			Parents: []Parent{Base("Base")},
			Fields:  []Field{{Name: "extra", Default: 0}},
			Methods: []*Method{NewOverride(getName, Returns("Derived"))},
		},
	}
}

// copier registers PoweredDevice, Scanner, Printer and Copier, with
// Scanner and Printer inheriting PoweredDevice virtually or not.
func copier(virtual bool) []ClassDef {
	parent := Parent{Name: "PoweredDevice", Virtual: virtual}
	return []ClassDef{
		{
			Name:    "PoweredDevice",
			Fields:  []Field{{Name: "power", Default: 0}},
			Methods: []*Method{NewVirtual(getName, Returns("PoweredDevice"))},
		},
		{Name: "Scanner", Parents: []Parent{parent}, Fields: []Field{{Name: "scanner", Default: 0}}},
		{Name: "Printer", Parents: []Parent{parent}, Fields: []Field{{Name: "printer", Default: 0}}},
		{Name: "Copier", Parents: []Parent{Base("Scanner"), Base("Printer")}},
	}
}
