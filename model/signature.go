package model

import "strings"

// Signature identifies a method by name and parameter types. Result is
// carried for override checking but is not part of the key: a redefinition
// with the same name and parameters overrides regardless of its result.
type Signature struct {
	Name   string   `cbor:"name" msgpack:"name" json:"name"`
	Params []string `cbor:"params,omitempty" msgpack:"params,omitempty" json:"params,omitempty"`
	Result string   `cbor:"result,omitempty" msgpack:"result,omitempty" json:"result,omitempty"`
}

// Sig builds a signature from a name and parameter types.
func Sig(name string, params ...string) Signature {
	return Signature{Name: name, Params: params}
}

// Returning returns a copy of s with the given result type.
func (s Signature) Returning(result string) Signature {
	s.Result = result
	return s
}

// Key returns the interning key: name(p1,p2).
func (s Signature) Key() string {
	return s.Name + "(" + strings.Join(s.Params, ",") + ")"
}

// ParseKey parses "name" or "name(p1,p2)" into a signature without a
// result type.
func ParseKey(key string) (Signature, bool) {
	key = strings.TrimSpace(key)
	open := strings.IndexByte(key, '(')
	if open < 0 {
		if key == "" || strings.ContainsAny(key, ")") {
			return Signature{}, false
		}
		return Sig(key), true
	}
	if open == 0 || !strings.HasSuffix(key, ")") {
		return Signature{}, false
	}
	sig := Sig(strings.TrimSpace(key[:open]))
	inner := strings.TrimSpace(key[open+1 : len(key)-1])
	if inner == "" {
		return sig, true
	}
	for _, p := range strings.Split(inner, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			return Signature{}, false
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, true
}

// String implements the Stringer interface.
func (s Signature) String() string {
	if s.Result == "" {
		return s.Key()
	}
	return s.Key() + " " + s.Result
}

// classResult splits a pointer or reference result ("*Base", "&Base") into
// its indirection marker and class name.
func classResult(result string) (marker byte, name string, ok bool) {
	if len(result) < 2 {
		return 0, "", false
	}
	switch result[0] {
	case '*', '&':
		return result[0], result[1:], true
	}
	return 0, "", false
}
