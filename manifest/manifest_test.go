package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "devices"
version = "0.1.0"

[snapshot]
database = "state/devices.db"
codec = "msgpack"

[[class]]
name = "PoweredDevice"
virtual_destructor = true
fields = [{ name = "power", default = 0 }]
methods = [{ name = "getName", type = "string", result = "PoweredDevice", virtual = true }]

[[class]]
name = "Scanner"
parents = [{ name = "PoweredDevice", virtual = true }]

[[call]]
name = "scanner name"
construct = "Scanner"
view = "PoweredDevice"
method = "getName"
expect = "PoweredDevice"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "devices" {
		t.Errorf("project name = %q, want devices", m.Project.Name)
	}
	if len(m.Classes) != 2 {
		t.Fatalf("classes count = %d, want 2", len(m.Classes))
	}
	pd := m.Classes[0]
	if !pd.VirtualDestructor {
		t.Error("PoweredDevice virtual_destructor = false, want true")
	}
	if len(pd.Fields) != 1 || pd.Fields[0].Default != int64(0) {
		t.Errorf("PoweredDevice fields = %v, want power = 0", pd.Fields)
	}
	if md := pd.Methods[0]; !md.Virtual || md.Result != "PoweredDevice" || md.Type != "string" {
		t.Errorf("getName decl = %+v", md)
	}
	if p := m.Classes[1].Parents; len(p) != 1 || !p[0].Virtual {
		t.Errorf("Scanner parents = %v, want virtual PoweredDevice", p)
	}
	if len(m.Calls) != 1 || m.Calls[0].View != "PoweredDevice" {
		t.Errorf("calls = %+v", m.Calls)
	}
	if got := m.DatabasePath(); got != filepath.Join(m.Dir, "state", "devices.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
	if m.Snapshot.Codec != "msgpack" {
		t.Errorf("codec = %q, want msgpack", m.Snapshot.Codec)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"

[[call]]
construct = "Base"
method = "getName"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Snapshot.Codec != "cbor" {
		t.Errorf("default codec = %q, want cbor", m.Snapshot.Codec)
	}
	if m.DatabasePath() != filepath.Join(m.Dir, ".polymodel", "snapshots.db") {
		t.Errorf("default database = %q", m.DatabasePath())
	}
	// The view defaults to the constructed class.
	if m.Calls[0].View != "Base" {
		t.Errorf("default view = %q, want Base", m.Calls[0].View)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[[class]\nname = 1", ""},
		{"unknown key", "[[class]]\nname = \"A\"\nvirtaul_destructor = true", "unknown key"},
		{"unnamed class", "[[class]]\nfinal = true", "no name"},
		{"result and delegate", `[[class]]
name = "A"
methods = [{ name = "m", result = 1, delegate = "n" }]`, "both result and delegate"},
		{"call without method", "[[call]]\nconstruct = \"A\"", "needs construct and method"},
		{"bad codec", "[snapshot]\ncodec = \"xml\"", "unknown snapshot codec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[project]\nname = \"found-project\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no polymodel.toml exists")
	}
}
