package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		want Signature
		ok   bool
	}{
		{"getName", Sig("getName"), true},
		{"getName()", Sig("getName"), true},
		{"print(int)", Sig("print", "int"), true},
		{"add(int, double)", Sig("add", "int", "double"), true},
		{"", Signature{}, false},
		{"(int)", Signature{}, false},
		{"print(int", Signature{}, false},
		{"print(int,)", Signature{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseKey(tt.key)
		if ok != tt.ok {
			t.Errorf("ParseKey(%q) ok = %t, want %t", tt.key, ok, tt.ok)
			continue
		}
		if diff := cmp.Diff(tt.want, got); ok && diff != "" {
			t.Errorf("ParseKey(%q) mismatch (-want +got):\n%s", tt.key, diff)
		}
		if ok && got.Key() != tt.want.Key() {
			t.Errorf("ParseKey(%q).Key() = %q, want %q", tt.key, got.Key(), tt.want.Key())
		}
	}
}

func TestSignatureString(t *testing.T) {
	if got := Sig("print", "int").String(); got != "print(int)" {
		t.Errorf("String() = %q, want print(int)", got)
	}
	if got := Sig("clone").Returning("*Base").String(); got != "clone() *Base" {
		t.Errorf("String() = %q, want %q", got, "clone() *Base")
	}
}

func TestSelectorTable(t *testing.T) {
	st := NewSelectorTable()
	a := st.Intern(Sig("print", "int"))
	b := st.Intern(Sig("print", "short"))
	if a == b {
		t.Fatal("different parameter lists should intern to different IDs")
	}
	if again := st.Intern(Sig("print", "int").Returning("void")); again != a {
		t.Errorf("result type should not affect the key: got %d, want %d", again, a)
	}
	if st.Lookup(Sig("missing")) != -1 {
		t.Error("Lookup of an unknown signature should return -1")
	}
	if got := st.Signature(b).Key(); got != "print(short)" {
		t.Errorf("Signature(%d) = %q, want print(short)", b, got)
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
}

func TestErrorKind(t *testing.T) {
	wrapped := fmt.Errorf("calling: %w", ErrNoSuchMethod)
	if got := ErrorKind(wrapped); got != "no-such-method" {
		t.Errorf("ErrorKind = %q, want no-such-method", got)
	}
	amb := &AmbiguityError{Class: &Class{Name: "W"}, Sig: Sig("getID")}
	if got := ErrorKind(amb); got != "ambiguous-method" {
		t.Errorf("ErrorKind = %q, want ambiguous-method", got)
	}
	if got := ErrorKind(errors.New("other")); got != "" {
		t.Errorf("ErrorKind = %q, want empty", got)
	}
	if got := ErrorKind(nil); got != "" {
		t.Errorf("ErrorKind(nil) = %q, want empty", got)
	}
}
