package manifest

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveIncludes(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "power"), `
[[class]]
name = "PoweredDevice"
`)
	writeManifest(t, filepath.Join(root, "office"), `
include = ["../power"]

[[class]]
name = "Scanner"
parents = [{ name = "PoweredDevice", virtual = true }]
`)
	writeManifest(t, filepath.Join(root, "app"), `
include = ["../power", "../office"]

[[class]]
name = "Copier"
parents = [{ name = "Scanner" }]
`)

	m, err := Load(filepath.Join(root, "app"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	classes, err := NewResolver(m).AllClasses()
	if err != nil {
		t.Fatalf("AllClasses: %v", err)
	}

	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "PoweredDevice,Scanner,Copier" {
		t.Errorf("classes = %s, want PoweredDevice,Scanner,Copier", got)
	}

	r, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("registry has %d classes, want 3", r.Len())
	}
}

func TestResolveIncludeCycle(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "a"), "include = [\"../b\"]\n")
	writeManifest(t, filepath.Join(root, "b"), "include = [\"../a\"]\n")

	m, err := Load(filepath.Join(root, "a"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := NewResolver(m).Resolve(); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("err = %v, want an include cycle", err)
	}
}

func TestResolveIncludeMissing(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "include = [\"nowhere\"]\n")
	m, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := NewResolver(m).Resolve(); err == nil {
		t.Error("expected an error for a missing include")
	}
}
