package model

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported by the registry, the object model and the resolution
// engine. All of them are usage errors: they are returned synchronously and
// never retried.
var (
	ErrDuplicateClass        = errors.New("duplicate class")
	ErrUnknownParent         = errors.New("unknown parent class")
	ErrUnknownClass          = errors.New("unknown class")
	ErrInvalidClass          = errors.New("invalid class definition")
	ErrNotFinalized          = errors.New("registry not finalized")
	ErrFrozen                = errors.New("registry is frozen")
	ErrAbstractInstantiation = errors.New("cannot instantiate abstract class")
	ErrAmbiguousMethod       = errors.New("ambiguous method")
	ErrPureVirtualCall       = errors.New("pure virtual method called")
	ErrNotAnAncestor         = errors.New("not an ancestor")
	ErrAmbiguousBase         = errors.New("ambiguous base class")
	ErrNoSuchMethod          = errors.New("no such method")
	ErrUnknownField          = errors.New("unknown field")
	ErrOverrideMismatch      = errors.New("method marked override does not override")
	ErrFinalOverride         = errors.New("cannot override final method")
	ErrFinalClass            = errors.New("cannot derive from final class")
	ErrResultMismatch        = errors.New("incompatible result type in override")
	ErrDestroyed             = errors.New("instance destroyed")
	ErrLifecycle             = errors.New("invalid lifecycle state")
	ErrNilView               = errors.New("view has no target")
	ErrInvalidSnapshot       = errors.New("invalid snapshot")
)

// AmbiguityError reports a signature that resolves to implementations from
// unrelated ancestors with no common override. Qualify the call with one of
// the candidates to disambiguate.
type AmbiguityError struct {
	Class      *Class
	Sig        Signature
	Candidates []*Class
}

func (e *AmbiguityError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("%s: %s in %s (candidates: %s)",
		ErrAmbiguousMethod, e.Sig, e.Class.Name, strings.Join(names, ", "))
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousMethod
}

var errorKinds = []struct {
	kind string
	err  error
}{
	{"duplicate-class", ErrDuplicateClass},
	{"unknown-parent", ErrUnknownParent},
	{"unknown-class", ErrUnknownClass},
	{"invalid-class", ErrInvalidClass},
	{"not-finalized", ErrNotFinalized},
	{"frozen", ErrFrozen},
	{"abstract-instantiation", ErrAbstractInstantiation},
	{"ambiguous-method", ErrAmbiguousMethod},
	{"pure-virtual-call", ErrPureVirtualCall},
	{"not-an-ancestor", ErrNotAnAncestor},
	{"ambiguous-base", ErrAmbiguousBase},
	{"no-such-method", ErrNoSuchMethod},
	{"unknown-field", ErrUnknownField},
	{"override-mismatch", ErrOverrideMismatch},
	{"final-override", ErrFinalOverride},
	{"final-class", ErrFinalClass},
	{"result-mismatch", ErrResultMismatch},
	{"destroyed", ErrDestroyed},
	{"lifecycle", ErrLifecycle},
	{"nil-view", ErrNilView},
	{"invalid-snapshot", ErrInvalidSnapshot},
}

// ErrorKind returns the short kebab-case name of the model error err wraps,
// or "" if it wraps none.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
