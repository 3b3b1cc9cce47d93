package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/polymodel/manifest"
	"github.com/chazu/polymodel/model"
	"github.com/chazu/polymodel/store"
	"github.com/chazu/polymodel/wire"
)

const copierProject = `
[project]
name = "devices"

[[class]]
name = "PoweredDevice"
fields = [{ name = "power", default = 0 }]
methods = [{ name = "getName", type = "string", result = "PoweredDevice", virtual = true }]

[[class]]
name = "Scanner"
parents = [{ name = "PoweredDevice", virtual = true }]
methods = [{ name = "getID", type = "int", result = 1 }]

[[class]]
name = "Printer"
parents = [{ name = "PoweredDevice", virtual = true }]
methods = [
  { name = "getID", type = "int", result = 2 },
  { name = "getName", type = "string", result = "Printer", override = true },
]

[[class]]
name = "Copier"
parents = [{ name = "Scanner" }, { name = "Printer" }]

[[call]]
name = "dominant override"
construct = "Copier"
view = "Scanner"
method = "getName"
expect = "Printer"

[[call]]
name = "name clash"
construct = "Copier"
method = "getID"
expect_error = "ambiguous-method"
`

func setupProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// execute runs the root command with args against the project in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	tablesFormat = "pretty"
	runTrace = false
	describeOut, describeCodec = "", ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--dir", dir, "--color", "off"))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestTablesCommand(t *testing.T) {
	dir := setupProject(t, copierProject)
	out, err := execute(t, dir, "tables", "Copier")
	if err != nil {
		t.Fatalf("tables: %v\n%s", err, out)
	}
	for _, want := range []string{"Copier", "getName()", "Printer", "ambiguous: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "Copier") || strings.Count(out, "\n\n") != 1 {
		t.Errorf("only Copier was requested:\n%s", out)
	}
}

func TestTablesJSON(t *testing.T) {
	dir := setupProject(t, copierProject)
	out, err := execute(t, dir, "tables", "--format", "json", "Scanner")
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	var descs []wire.ClassDesc
	if err := json.Unmarshal([]byte(out), &descs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(descs) != 1 || descs[0].Name != "Scanner" {
		t.Fatalf("descs = %+v", descs)
	}
}

func TestTablesUnknownClass(t *testing.T) {
	dir := setupProject(t, copierProject)
	if _, err := execute(t, dir, "tables", "Nope"); !errors.Is(err, model.ErrUnknownClass) {
		t.Errorf("err = %v, want ErrUnknownClass", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := setupProject(t, copierProject)
	out, err := execute(t, dir, "layout", "Copier")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(out, "Copier/virtual:PoweredDevice (shared)") {
		t.Errorf("shared segment missing:\n%s", out)
	}
	if strings.Index(out, "Copier/Scanner") > strings.Index(out, "Copier/Printer") {
		t.Errorf("Scanner should be laid out before Printer:\n%s", out)
	}
}

func TestRunCommand(t *testing.T) {
	dir := setupProject(t, copierProject)
	out, err := execute(t, dir, "run")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "PASS dominant override") || !strings.Contains(out, "PASS name clash") {
		t.Errorf("output:\n%s", out)
	}

	if _, err := execute(t, dir, "run", "missing"); err == nil {
		t.Error("running an unknown call should fail")
	}
}

func TestRunCommandFailure(t *testing.T) {
	dir := setupProject(t, copierProject+`
[[call]]
name = "wrong"
construct = "Copier"
method = "getName"
expect = "Scanner"
`)
	out, err := execute(t, dir, "run", "--trace")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 calls failed") {
		t.Fatalf("err = %v, want 1 of 3 calls failed", err)
	}
	if !strings.Contains(out, "FAIL wrong") || !strings.Contains(out, "(expected Scanner)") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "construct Copier") {
		t.Errorf("--trace should print lifecycle events:\n%s", out)
	}
}

func TestDescribeCommand(t *testing.T) {
	dir := setupProject(t, copierProject)
	outFile := filepath.Join(dir, "devices.msgpack")
	out, err := execute(t, dir, "describe", "--codec", "msgpack", "--out", outFile)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.HasPrefix(out, "devices ") || !strings.Contains(out, "(4 classes)") {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	desc, err := wire.UnmarshalRegistry(wire.Msgpack, data)
	if err != nil {
		t.Fatalf("UnmarshalRegistry: %v", err)
	}
	digest, err := wire.Digest(desc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, digest) {
		t.Errorf("printed digest does not match the exported description: %q vs %s", out, digest)
	}
}

func TestSnapshotCommands(t *testing.T) {
	dir := setupProject(t, copierProject)

	out, err := execute(t, dir, "snapshot", "save", "dominant override")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id := strings.TrimSpace(out)
	if !strings.HasPrefix(id, "copier_") {
		t.Fatalf("id = %q", id)
	}

	out, err = execute(t, dir, "snapshot", "list", "Copier")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "live") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = execute(t, dir, "snapshot", "show", id)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if snap.ID != id || snap.Class != "Copier" || len(snap.Segments) != 4 {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := execute(t, dir, "snapshot", "rm", id); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := execute(t, dir, "snapshot", "rm", id); !errors.Is(err, store.ErrInstanceNotFound) {
		t.Errorf("second rm: err = %v, want ErrInstanceNotFound", err)
	}
}

func TestNoManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "tables")
	if err == nil || !strings.Contains(err.Error(), "no polymodel.toml found") {
		t.Errorf("err = %v", err)
	}
}
