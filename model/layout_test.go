package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func segmentPaths(segs []*Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Path
	}
	return out
}

func TestLayoutSingleInheritance(t *testing.T) {
	r := mustRegistry(t, baseDerived()...)
	plan := r.Lookup("Derived").Layout()

	want := "Derived/Base\nDerived\n"
	if got := plan.String(); got != want {
		t.Errorf("layout =\n%s\nwant\n%s", got, want)
	}
	if len(plan.Virtual) != 0 {
		t.Errorf("Virtual = %d segments, want 0", len(plan.Virtual))
	}
}

func TestLayoutNonVirtualDiamond(t *testing.T) {
	r := mustRegistry(t, copier(false)...)
	c := r.Lookup("Copier")
	pd := r.Lookup("PoweredDevice")

	if n := c.Layout().Count(pd); n != 2 {
		t.Fatalf("Count(PoweredDevice) = %d, want 2", n)
	}
	inst := mustNew(t, r, "Copier", Init{})
	want := []string{
		"Copier/Scanner/PoweredDevice",
		"Copier/Scanner",
		"Copier/Printer/PoweredDevice",
		"Copier/Printer",
		"Copier",
	}
	if diff := cmp.Diff(want, segmentPaths(inst.Segments())); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	// Writes through one path do not show through the other.
	scanner, err := mustView(t, r, inst, "Scanner").Upcast(pd)
	if err != nil {
		t.Fatalf("Upcast: %v", err)
	}
	scanner.Subobject().fields["power"] = 1
	printer, err := mustView(t, r, inst, "Printer").Upcast(pd)
	if err != nil {
		t.Fatalf("Upcast: %v", err)
	}
	if got, _ := printer.Subobject().Field("power"); got != 0 {
		t.Errorf("Printer's PoweredDevice power = %v, want 0", got)
	}
}

func TestLayoutVirtualDiamond(t *testing.T) {
	r := mustRegistry(t, copier(true)...)
	c := r.Lookup("Copier")
	pd := r.Lookup("PoweredDevice")

	if n := c.Layout().Count(pd); n != 1 {
		t.Fatalf("Count(PoweredDevice) = %d, want 1", n)
	}
	inst := mustNew(t, r, "Copier", Init{})
	want := []string{
		"Copier/virtual:PoweredDevice",
		"Copier/Scanner",
		"Copier/Printer",
		"Copier",
	}
	if diff := cmp.Diff(want, segmentPaths(inst.Segments())); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	// Both paths share the one subobject.
	scanner, err := mustView(t, r, inst, "Scanner").Upcast(pd)
	if err != nil {
		t.Fatalf("Upcast: %v", err)
	}
	printer, err := mustView(t, r, inst, "Printer").Upcast(pd)
	if err != nil {
		t.Fatalf("Upcast: %v", err)
	}
	if scanner.Subobject() != printer.Subobject() {
		t.Error("Scanner and Printer should share the PoweredDevice subobject")
	}
	if !scanner.Subobject().Shared {
		t.Error("virtual base segment should be marked shared")
	}
	if _, err := MakeView(inst, pd); err != nil {
		t.Errorf("MakeView(PoweredDevice) on virtual diamond: %v", err)
	}

	wantString := "Copier/virtual:PoweredDevice (shared)\nCopier/Scanner\nCopier/Printer\nCopier\n"
	if got := c.Layout().String(); got != wantString {
		t.Errorf("String() =\n%s\nwant\n%s", got, wantString)
	}
}

func TestLayoutMixedInheritance(t *testing.T) {
	// One virtual and one non-virtual path to A: A is still shared.
	r := mustRegistry(t,
		ClassDef{Name: "A", Fields: []Field{{Name: "a"}}},
		ClassDef{Name: "B", Parents: []Parent{VirtualBase("A")}},
		ClassDef{Name: "C", Parents: []Parent{Base("A")}},
		ClassDef{Name: "D", Parents: []Parent{Base("B"), Base("C")}},
	)
	a := r.Lookup("A")
	if got := r.Lookup("D").Layout().Count(a); got != 1 {
		t.Errorf("Count(A) = %d, want 1", got)
	}
	inst := mustNew(t, r, "D", Init{})
	want := []string{"D/virtual:A", "D/B", "D/C", "D"}
	if diff := cmp.Diff(want, segmentPaths(inst.Segments())); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	v, err := MakeView(inst, a)
	if err != nil {
		t.Fatalf("MakeView(A): %v", err)
	}
	if !v.Subobject().Shared {
		t.Error("A segment should be shared")
	}
	viaB, err := mustView(t, r, inst, "B").Upcast(a)
	if err != nil {
		t.Fatalf("Upcast through B: %v", err)
	}
	viaC, err := mustView(t, r, inst, "C").Upcast(a)
	if err != nil {
		t.Fatalf("Upcast through C: %v", err)
	}
	if viaB.Subobject() != viaC.Subobject() {
		t.Error("B and C should reach the same A subobject")
	}

	// C alone keeps its ordinary non-virtual A.
	if got := r.Lookup("C").Layout().String(); got != "C/A\nC\n" {
		t.Errorf("C layout = %q", got)
	}
}

func TestLayoutNestedVirtualBases(t *testing.T) {
	r := mustRegistry(t,
		ClassDef{Name: "W"},
		ClassDef{Name: "V", Parents: []Parent{VirtualBase("W")}},
		ClassDef{Name: "X", Parents: []Parent{VirtualBase("V")}},
		ClassDef{Name: "Y", Parents: []Parent{VirtualBase("V"), VirtualBase("W")}},
		ClassDef{Name: "Z", Parents: []Parent{Base("X"), Base("Y")}},
	)
	plan := r.Lookup("Z").Layout()

	var order []string
	for _, sp := range plan.Virtual {
		order = append(order, sp.Class.Name)
	}
	if diff := cmp.Diff([]string{"W", "V"}, order); diff != "" {
		t.Errorf("virtual base order mismatch (-want +got):\n%s", diff)
	}

	want := "Z/virtual:W (shared)\nZ/virtual:V (shared)\nZ/X\nZ/Y\nZ\n"
	if got := plan.String(); got != want {
		t.Errorf("layout =\n%s\nwant\n%s", got, want)
	}

	// The shared V segment points at the shared W segment.
	v := plan.SegmentsOf(r.Lookup("V"))[0]
	if len(v.Bases) != 1 || v.Bases[0] != plan.Virtual[0] {
		t.Error("V's base should be the shared W segment")
	}
}
