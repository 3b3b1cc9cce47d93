// Package manifest handles polymodel.toml hierarchy files.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of a hierarchy file.
const FileName = "polymodel.toml"

// Manifest represents a polymodel.toml hierarchy file.
type Manifest struct {
	Project  Project        `toml:"project"`
	Include  []string       `toml:"include"`
	Classes  []ClassDecl    `toml:"class"`
	Calls    []Call         `toml:"call"`
	Snapshot SnapshotConfig `toml:"snapshot"`

	// Dir is the directory containing the polymodel.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ClassDecl declares one class.
type ClassDecl struct {
	Name              string       `toml:"name"`
	Parents           []ParentDecl `toml:"parents"`
	Fields            []FieldDecl  `toml:"fields"`
	Methods           []MethodDecl `toml:"methods"`
	Final             bool         `toml:"final"`
	VirtualDestructor bool         `toml:"virtual_destructor"`
}

// ParentDecl names a direct base.
type ParentDecl struct {
	Name    string `toml:"name"`
	Virtual bool   `toml:"virtual"`
}

// FieldDecl declares a field and its default value.
type FieldDecl struct {
	Name    string `toml:"name"`
	Default any    `toml:"default"`
}

// MethodDecl declares a method. Its body either returns the constant
// Result or delegates to a virtual self call of Delegate.
type MethodDecl struct {
	Name     string   `toml:"name"`
	Params   []string `toml:"params"`
	Type     string   `toml:"type"`
	Result   any      `toml:"result"`
	Delegate string   `toml:"delegate"`
	Virtual  bool     `toml:"virtual"`
	Pure     bool     `toml:"pure"`
	Final    bool     `toml:"final"`
	Override bool     `toml:"override"`
}

// InitDecl mirrors model.Init.
type InitDecl struct {
	Fields       map[string]any       `toml:"fields"`
	Bases        map[string]*InitDecl `toml:"bases"`
	VirtualBases map[string]*InitDecl `toml:"virtual_bases"`
}

// Call is a scenario: construct an object, view it as some class and call
// a method through the view.
type Call struct {
	Name      string   `toml:"name"`
	Construct string   `toml:"construct"`
	Init      InitDecl `toml:"init"`
	Slice     string   `toml:"slice"`
	Via       string   `toml:"via"`
	View      string   `toml:"view"`
	Method    string   `toml:"method"`
	Args      []any    `toml:"args"`
	Qualified string   `toml:"qualified"`
	Destroy   bool     `toml:"destroy"`

	Expect      any    `toml:"expect"`
	ExpectError string `toml:"expect_error"`
}

// SnapshotConfig configures snapshot persistence.
type SnapshotConfig struct {
	Database string `toml:"database"`
	Codec    string `toml:"codec"`
}

// Load parses a polymodel.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes a hierarchy file and applies defaults. The result has no
// Dir.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	// Defaults
	if m.Snapshot.Database == "" {
		m.Snapshot.Database = filepath.Join(".polymodel", "snapshots.db")
	}
	if m.Snapshot.Codec == "" {
		m.Snapshot.Codec = "cbor"
	}
	for i := range m.Calls {
		if m.Calls[i].View == "" {
			m.Calls[i].View = m.Calls[i].Construct
			if m.Calls[i].Slice != "" {
				m.Calls[i].View = m.Calls[i].Slice
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a polymodel.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks the declarations that do not need a registry.
func (m *Manifest) Validate() error {
	for i, c := range m.Classes {
		if c.Name == "" {
			return fmt.Errorf("class #%d has no name", i+1)
		}
		for _, md := range c.Methods {
			if md.Name == "" {
				return fmt.Errorf("class %s: method with no name", c.Name)
			}
			if md.Delegate != "" && md.Result != nil {
				return fmt.Errorf("class %s: method %s has both result and delegate", c.Name, md.Name)
			}
		}
	}
	for i, call := range m.Calls {
		if call.Construct == "" || call.Method == "" {
			return fmt.Errorf("call %s needs construct and method", call.label(i))
		}
	}
	switch m.Snapshot.Codec {
	case "cbor", "msgpack":
	default:
		return fmt.Errorf("unknown snapshot codec %q", m.Snapshot.Codec)
	}
	return nil
}

// DatabasePath returns the absolute path of the snapshot database.
func (m *Manifest) DatabasePath() string {
	if filepath.IsAbs(m.Snapshot.Database) {
		return m.Snapshot.Database
	}
	return filepath.Join(m.Dir, m.Snapshot.Database)
}

func (c Call) label(i int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%d", i+1)
}
