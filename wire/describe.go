package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/chazu/polymodel/model"
)

// RegistryDesc is the serializable description of a finalized registry.
type RegistryDesc struct {
	Classes []ClassDesc `cbor:"classes" msgpack:"classes" json:"classes"`
}

// ClassDesc describes one class: its declaration, its dispatch table and
// its layout.
type ClassDesc struct {
	Name              string        `cbor:"name" msgpack:"name" json:"name"`
	Parents           []ParentDesc  `cbor:"parents,omitempty" msgpack:"parents,omitempty" json:"parents,omitempty"`
	Fields            []string      `cbor:"fields,omitempty" msgpack:"fields,omitempty" json:"fields,omitempty"`
	Methods           []MethodDesc  `cbor:"methods,omitempty" msgpack:"methods,omitempty" json:"methods,omitempty"`
	Final             bool          `cbor:"final,omitempty" msgpack:"final,omitempty" json:"final,omitempty"`
	VirtualDestructor bool          `cbor:"virtual_destructor,omitempty" msgpack:"virtual_destructor,omitempty" json:"virtual_destructor,omitempty"`
	Abstract          bool          `cbor:"abstract,omitempty" msgpack:"abstract,omitempty" json:"abstract,omitempty"`
	Interface         bool          `cbor:"interface,omitempty" msgpack:"interface,omitempty" json:"interface,omitempty"`
	Table             []EntryDesc   `cbor:"table,omitempty" msgpack:"table,omitempty" json:"table,omitempty"`
	Layout            []SegmentDesc `cbor:"layout" msgpack:"layout" json:"layout"`
}

// ParentDesc describes an inheritance edge.
type ParentDesc struct {
	Name    string `cbor:"name" msgpack:"name" json:"name"`
	Virtual bool   `cbor:"virtual,omitempty" msgpack:"virtual,omitempty" json:"virtual,omitempty"`
}

// MethodDesc describes a declared method.
type MethodDesc struct {
	Sig      model.Signature `cbor:"sig" msgpack:"sig" json:"sig"`
	Virtual  bool            `cbor:"virtual,omitempty" msgpack:"virtual,omitempty" json:"virtual,omitempty"`
	Pure     bool            `cbor:"pure,omitempty" msgpack:"pure,omitempty" json:"pure,omitempty"`
	Final    bool            `cbor:"final,omitempty" msgpack:"final,omitempty" json:"final,omitempty"`
	Override bool            `cbor:"override,omitempty" msgpack:"override,omitempty" json:"override,omitempty"`
	Defined  bool            `cbor:"defined,omitempty" msgpack:"defined,omitempty" json:"defined,omitempty"`
}

// EntryDesc describes a dispatch table slot.
type EntryDesc struct {
	Key        string   `cbor:"key" msgpack:"key" json:"key"`
	Owner      string   `cbor:"owner,omitempty" msgpack:"owner,omitempty" json:"owner,omitempty"`
	Virtual    bool     `cbor:"virtual,omitempty" msgpack:"virtual,omitempty" json:"virtual,omitempty"`
	Final      bool     `cbor:"final,omitempty" msgpack:"final,omitempty" json:"final,omitempty"`
	Pure       bool     `cbor:"pure,omitempty" msgpack:"pure,omitempty" json:"pure,omitempty"`
	Candidates []string `cbor:"candidates,omitempty" msgpack:"candidates,omitempty" json:"candidates,omitempty"`
}

// SegmentDesc describes a planned segment.
type SegmentDesc struct {
	Path   string `cbor:"path" msgpack:"path" json:"path"`
	Class  string `cbor:"class" msgpack:"class" json:"class"`
	Shared bool   `cbor:"shared,omitempty" msgpack:"shared,omitempty" json:"shared,omitempty"`
}

// Describe captures a finalized registry.
func Describe(r *model.Registry) (RegistryDesc, error) {
	if !r.Frozen() {
		return RegistryDesc{}, model.ErrNotFinalized
	}
	var d RegistryDesc
	for _, c := range r.Classes() {
		d.Classes = append(d.Classes, DescribeClass(c))
	}
	return d, nil
}

// DescribeClass captures one class of a finalized registry.
func DescribeClass(c *model.Class) ClassDesc {
	d := ClassDesc{
		Name:              c.Name,
		Final:             c.Final,
		VirtualDestructor: c.VirtualDestructor,
		Abstract:          model.IsAbstract(c),
		Interface:         model.IsInterface(c),
	}
	for _, e := range c.Parents() {
		d.Parents = append(d.Parents, ParentDesc{Name: e.Class.Name, Virtual: e.Virtual})
	}
	for _, f := range c.Fields() {
		d.Fields = append(d.Fields, f.Name)
	}
	for _, m := range c.DeclaredMethods() {
		d.Methods = append(d.Methods, MethodDesc{
			Sig:      m.Sig,
			Virtual:  m.IsVirtual(),
			Pure:     m.Pure,
			Final:    m.Final,
			Override: m.Override,
			Defined:  m.Impl != nil,
		})
	}
	if t := c.Table(); t != nil {
		for _, e := range t.Entries() {
			d.Table = append(d.Table, describeEntry(e))
		}
	}
	d.Layout = DescribeLayout(c.Layout())
	return d
}

func describeEntry(e *model.Entry) EntryDesc {
	ed := EntryDesc{
		Key:     e.Sig.Key(),
		Virtual: e.Virtual,
		Final:   e.Final,
		Pure:    e.Pure(),
	}
	if e.Ambiguous {
		for _, c := range e.Candidates {
			ed.Candidates = append(ed.Candidates, c.Name)
		}
	} else {
		ed.Owner = e.Owner.Name
	}
	return ed
}

// DescribeLayout lists a layout plan's segments in construction order.
func DescribeLayout(p *model.LayoutPlan) []SegmentDesc {
	if p == nil {
		return nil
	}
	out := make([]SegmentDesc, 0, len(p.Segments))
	for _, sp := range p.Segments {
		out = append(out, SegmentDesc{Path: sp.Path, Class: sp.Class.Name, Shared: sp.Shared})
	}
	return out
}

// MarshalRegistry serializes a registry description.
func MarshalRegistry(c Codec, d RegistryDesc) ([]byte, error) {
	return c.Marshal(d)
}

// UnmarshalRegistry deserializes a registry description.
func UnmarshalRegistry(c Codec, data []byte) (RegistryDesc, error) {
	var d RegistryDesc
	if err := c.Unmarshal(data, &d); err != nil {
		return RegistryDesc{}, fmt.Errorf("wire: unmarshal registry: %w", err)
	}
	return d, nil
}

// Digest returns the hex SHA-256 of the description's canonical CBOR
// encoding. Equal hierarchies have equal digests.
func Digest(d RegistryDesc) (string, error) {
	data, err := cborEncMode.Marshal(d)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
