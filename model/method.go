package model

// Value is the dynamic value type flowing through fields, arguments and
// method results.
type Value = any

// Func is a method body. self is bound to the receiving object and to the
// class whose code is running.
type Func func(self *Receiver, args ...Value) (Value, error)

// Method is a method declared by a class.
type Method struct {
	Sig      Signature
	Impl     Func
	Virtual  bool
	Pure     bool // no override-free instantiation; implies Virtual
	Final    bool // descendants may not override
	Override bool // must override an inherited virtual
}

// IsVirtual reports whether the method was declared virtual (or pure).
// Redeclarations of inherited virtuals are virtual regardless; see
// Entry.Virtual for the effective flag.
func (m *Method) IsVirtual() bool {
	return m.Virtual || m.Pure
}

// Returns builds a Func that ignores its arguments and returns v.
func Returns(v Value) Func {
	return func(*Receiver, ...Value) (Value, error) {
		return v, nil
	}
}

// Delegate builds a Func that forwards to a virtual self call of sig,
// passing its arguments through.
func Delegate(sig Signature) Func {
	return func(self *Receiver, args ...Value) (Value, error) {
		return self.Call(sig, args...)
	}
}

// NewMethod declares a non-virtual method.
func NewMethod(sig Signature, impl Func) *Method {
	return &Method{Sig: sig, Impl: impl}
}

// NewVirtual declares a virtual method.
func NewVirtual(sig Signature, impl Func) *Method {
	return &Method{Sig: sig, Impl: impl, Virtual: true}
}

// NewPure declares a pure virtual method with no implementation.
func NewPure(sig Signature) *Method {
	return &Method{Sig: sig, Virtual: true, Pure: true}
}

// NewOverride declares a method carrying the override specifier.
func NewOverride(sig Signature, impl Func) *Method {
	return &Method{Sig: sig, Impl: impl, Virtual: true, Override: true}
}
